package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"

	"fieldops_go/config"
	"fieldops_go/database"
	"fieldops_go/models"
)

// Queue item structure stored in Redis. Kept minimal to reduce payload
// size; a single payload may fan out to many userIDs. If Redis is down
// we fall back to direct DB insert, so delivery never blocks the core.
type queuedNotification struct {
	UserIDs   []uint    `json:"user_ids"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const redisListKey = "notifications:queue"

// TableChanged is the fire-and-forget change event published after each
// core mutation. Dashboards subscribe independently; correctness of the
// core never depends on a subscriber having received it.
type TableChanged struct {
	Entity   string    `json:"entity"`
	EntityID uint      `json:"entity_id"`
	At       time.Time `json:"at"`
}

// Service exposes notification creation with optional Redis queue.
// If Redis disabled/unavailable, performs direct DB insert.
type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
	wsHub    WSHub
}

// WSHub interface for WebSocket broadcasting
type WSHub interface {
	BroadcastToUser(userID uint, message interface{})
	BroadcastToAll(message interface{})
}

// defaultHub allows services created in different parts of the app (e.g.,
// sweeps) to broadcast over the same WebSocket hub without manual wiring.
var defaultHub WSHub

// SetDefaultWSHub sets the package-level default WebSocket hub used by new Service instances.
func SetDefaultWSHub(h WSHub) {
	defaultHub = h
}

func NewService() *Service {
	return &Service{
		db:       database.GetDB(),
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisNotifications && database.GetRedisClient() != nil,
		wsHub:    defaultHub,
	}
}

// SetWebSocketHub sets the WebSocket hub for real-time notifications
func (s *Service) SetWebSocketHub(hub WSHub) {
	s.wsHub = hub
}

// PublishTableChanged broadcasts a change event to connected dashboard
// clients. Fire-and-forget: errors are logged, never returned to the
// mutation path.
func (s *Service) PublishTableChanged(entity string, entityID uint) {
	ev := TableChanged{Entity: entity, EntityID: entityID, At: time.Now().UTC()}
	if s.wsHub != nil {
		s.wsHub.BroadcastToAll(map[string]interface{}{
			"type": "table_changed",
			"data": ev,
		})
	}
	if s.redis != nil {
		b, err := json.Marshal(ev)
		if err != nil {
			return
		}
		if err := s.redis.Publish(context.Background(), "table_changed:"+entity, b).Err(); err != nil {
			log.Printf("[notif] table_changed publish failed: %v", err)
		}
	}
}

// Queued creates a minimal queuedNotification (public helper for controllers).
func Queued(title, message, typ string) queuedNotification {
	return queuedNotification{Title: title, Message: message, Type: typ}
}

// QueuedWithData allows attaching a structured data payload (deep-links/actions).
func QueuedWithData(title, message, typ string, data any) queuedNotification {
	return queuedNotification{Title: title, Message: message, Type: typ, Data: data}
}

// EnqueueOrCreate stores notifications using Redis queue if enabled, else direct insert.
func (s *Service) EnqueueOrCreate(userIDs []uint, n queuedNotification) error {
	if len(userIDs) == 0 {
		return errors.New("no user ids")
	}
	n.UserIDs = userIDs
	n.CreatedAt = time.Now().UTC()

	if s.useRedis {
		b, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if err = s.redis.RPush(context.Background(), redisListKey, b).Err(); err == nil {
			return nil // queued successfully
		}
		log.Printf("[notif] Redis queue failed, falling back to direct insert: %v", err)
	}

	// fallback: direct db insert
	return s.createDirect(userIDs, n)
}

// createDirect writes directly to DB (used by worker or fallback).
func (s *Service) createDirect(userIDs []uint, n queuedNotification) error {
	if len(userIDs) == 0 {
		return nil
	}
	notifs := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		notifs = append(notifs, models.Notification{
			UserID:  uid,
			Title:   n.Title,
			Message: n.Message,
			Type:    n.Type,
			Read:    false,
		})
	}

	if err := s.db.Create(&notifs).Error; err != nil {
		return err
	}

	// Send WebSocket notifications if hub is available
	if s.wsHub != nil {
		for _, notif := range notifs {
			wsMessage := map[string]interface{}{
				"type": "notification",
				"data": notif,
			}
			s.wsHub.BroadcastToUser(notif.UserID, wsMessage)
		}
	}

	return nil
}

// StartWorker starts a background worker polling Redis queue and flushing to DB
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		log.Println("[notif] Redis notifications disabled; worker not started")
		return
	}
	go func() {
		log.Println("[notif] Redis notification worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				log.Println("[notif] Worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch polls redis queue and processes notifications in batches.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	// LRange + LTrim keeps this safe for moderate concurrency
	for i := 0; i < 5; i++ { // up to 5 sub-batches per tick
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		// Trim immediately to avoid duplicates (best-effort)
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			log.Printf("[notif] LTrim failed: %v", err)
		}
		for _, raw := range vals {
			var q queuedNotification
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				continue
			}
			if err := s.createDirect(q.UserIDs, q); err != nil {
				log.Printf("[notif] DB insert failed (retry later?): %v", err)
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}
