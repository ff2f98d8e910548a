package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fieldops_go/database"
	"fieldops_go/models"
	"fieldops_go/services/notifications"
)

// SessionService owns the daily session lifecycle: one session per
// (actor, calendar day), punch-in/out, and the expiry sweep.
type SessionService struct {
	db         *gorm.DB
	tasks      *TaskService
	markets    *MarketService
	attendance *AttendanceService
	notif      *notifications.Service
}

func NewSessionService() *SessionService {
	return &SessionService{
		db:         database.GetDB(),
		tasks:      NewTaskService(),
		markets:    NewMarketService(),
		attendance: NewAttendanceService(),
		notif:      notifications.NewService(),
	}
}

// GetOrCreateSession returns the actor's session for the date, creating
// it in active state on first call. Idempotent: replays return the
// existing row unchanged, including its market binding (first writer
// wins). Binding a market that is not live on the date is rejected.
func (ss *SessionService) GetOrCreateSession(userID uint, date time.Time, marketID *uint) (*models.Session, error) {
	day := OperationalDate(date)

	existing, err := ss.findByDate(userID, day)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if marketID != nil {
		live, err := ss.markets.IsMarketLive(*marketID, day)
		if err != nil {
			return nil, err
		}
		if !live {
			return nil, PolicyViolation("market %d is not live on %s", *marketID, day.Format("2006-01-02"))
		}
	}

	marketDate := day
	session := models.Session{
		UserID:      userID,
		SessionDate: day,
		MarketDate:  &marketDate,
		MarketID:    marketID,
		Status:      models.SessionActive,
	}
	if err := ss.db.Create(&session).Error; err != nil {
		// Unique index on (user_id, session_date): a concurrent creator
		// won; return their row.
		if winner, err2 := ss.findByDate(userID, day); err2 == nil && winner != nil {
			return winner, nil
		}
		return nil, err
	}

	if err := ss.attendance.RecomputeForDate(userID, day); err != nil {
		logrus.WithError(err).Warn("attendance recompute after session create failed")
	}
	ss.notif.PublishTableChanged("sessions", session.ID)
	return &session, nil
}

// FindSessionByDate returns the actor's session for the date, or nil when
// none exists.
func (ss *SessionService) FindSessionByDate(userID uint, date time.Time) (*models.Session, error) {
	return ss.findByDate(userID, OperationalDate(date))
}

func (ss *SessionService) findByDate(userID uint, day time.Time) (*models.Session, error) {
	var session models.Session
	err := ss.db.Where("user_id = ? AND session_date = ?", userID, day.Format("2006-01-02")).
		First(&session).Error
	if err == nil {
		return &session, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// GetSession fetches a session by id.
func (ss *SessionService) GetSession(sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := ss.db.Preload("Market").First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("session %d not found", sessionID)
		}
		return nil, err
	}
	return &session, nil
}

// PunchIn starts the working day. A GPS fix and a captured selfie
// reference are mandatory preconditions, not optional telemetry.
func (ss *SessionService) PunchIn(sessionID uint, lat, lng *float64, selfieURL string) (*models.Session, error) {
	session, err := ss.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.PunchInTime != nil {
		return nil, Conflict("session %d already punched in", sessionID)
	}
	if lat == nil || lng == nil {
		return nil, PreconditionFailed("punch-in requires a GPS fix")
	}
	if selfieURL == "" {
		return nil, PreconditionFailed("punch-in requires a selfie capture")
	}

	now := time.Now()
	payload, _ := json.Marshal(map[string]string{"kind": "punch_in"})
	if _, err := ss.tasks.RecordEvent(session.ID, "punch", RecordEventInput{
		Payload:     payload,
		Latitude:    lat,
		Longitude:   lng,
		FileURL:     selfieURL,
		CaptureTime: now,
		Terminal:    false,
	}); err != nil {
		return nil, err
	}

	session.PunchInTime = &now
	if err := ss.db.Save(session).Error; err != nil {
		return nil, err
	}

	if err := ss.attendance.RecomputeForDate(session.UserID, session.SessionDate); err != nil {
		logrus.WithError(err).Warn("attendance recompute after punch-in failed")
	}
	ss.notif.PublishTableChanged("sessions", session.ID)
	return session, nil
}

// PunchOut closes the working day and takes the attendance-eligible
// completion snapshot. Later submissions are still accepted but only the
// reconciliation sweep refreshes the snapshot after this point.
func (ss *SessionService) PunchOut(sessionID uint) (*models.Session, error) {
	session, err := ss.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session.PunchInTime == nil {
		return nil, PreconditionFailed("punch-out requires punch-in first")
	}
	if session.PunchOutTime != nil {
		return nil, Conflict("session %d already punched out", sessionID)
	}

	now := time.Now()
	payload, _ := json.Marshal(map[string]string{"kind": "punch_out"})
	if _, err := ss.tasks.RecordEvent(session.ID, "punch", RecordEventInput{
		Payload:     payload,
		CaptureTime: now,
		Terminal:    true,
	}); err != nil {
		return nil, err
	}

	session.PunchOutTime = &now
	session.Status = models.SessionCompleted
	if err := ss.db.Save(session).Error; err != nil {
		return nil, err
	}

	if err := ss.attendance.RecomputeForDate(session.UserID, session.SessionDate); err != nil {
		logrus.WithError(err).Warn("attendance recompute after punch-out failed")
	}
	ss.notif.PublishTableChanged("sessions", session.ID)
	return session, nil
}

// operationalDay returns the day a session's data belongs to: market_date
// when set, session_date otherwise.
func operationalDay(session *models.Session) time.Time {
	if session.MarketDate != nil {
		return *session.MarketDate
	}
	return session.SessionDate
}

// isStale reports whether an active session's operational day has passed.
// Readers apply this without waiting for the sweep; the sweep persists it.
func isStale(session *models.Session, now time.Time) bool {
	if session.Status != models.SessionActive {
		return false
	}
	return operationalDay(session).Before(OperationalDate(now))
}

// DisplayStatus folds the stored status and expiry classification into
// the value shown to callers. incomplete_expired is display-only, never
// stored.
func (ss *SessionService) DisplayStatus(session *models.Session, now time.Time) (string, error) {
	if session.Status != models.SessionActive && session.Status != models.SessionCompleted {
		return session.Status, nil
	}
	if !operationalDay(session).Before(OperationalDate(now)) {
		return session.Status, nil
	}
	completed, err := ss.attendance.countCompleted(session.ID)
	if err != nil {
		return session.Status, err
	}
	if completed < len(models.RequiredTaskTypes) {
		return "incomplete_expired", nil
	}
	return session.Status, nil
}

// ExpireStaleSessions transitions every active session whose operational
// day is behind the current one to completed, and reconciles attendance
// for each. Background sweep; request-path readers use isStale directly.
func (ss *SessionService) ExpireStaleSessions(now time.Time) ([]models.Session, error) {
	today := OperationalDate(now)

	var candidates []models.Session
	if err := ss.db.Where("status = ?", models.SessionActive).Find(&candidates).Error; err != nil {
		return nil, err
	}

	var expired []models.Session
	for i := range candidates {
		s := &candidates[i]
		if !isStale(s, now) {
			continue
		}
		s.Status = models.SessionCompleted
		if err := ss.db.Save(s).Error; err != nil {
			logrus.WithError(err).WithField("session_id", s.ID).Warn("failed to expire session")
			continue
		}
		if err := ss.attendance.RecomputeForDate(s.UserID, s.SessionDate); err != nil {
			logrus.WithError(err).WithField("session_id", s.ID).Warn("attendance recompute after expiry failed")
		}
		if err := ss.notif.EnqueueOrCreate([]uint{s.UserID}, notifications.QueuedWithData(
			"Session auto-completed",
			fmt.Sprintf("Your session for %s was closed automatically with incomplete tasks", operationalDay(s).Format("2006-01-02")),
			"warning",
			map[string]uint{"session_id": s.ID},
		)); err != nil {
			logrus.WithError(err).WithField("session_id", s.ID).Warn("expiry notification failed")
		}
		ss.notif.PublishTableChanged("sessions", s.ID)
		expired = append(expired, *s)
	}

	if len(expired) > 0 {
		logrus.WithFields(logrus.Fields{
			"count": len(expired),
			"as_of": today.Format("2006-01-02"),
		}).Info("expired stale sessions")
	}
	return expired, nil
}

// SessionSummary aggregates a session for review screens.
type SessionSummary struct {
	SessionID       uint       `json:"session_id"`
	Status          string     `json:"status"`
	StallsCount     int64      `json:"stalls_count"`
	MediaCount      int64      `json:"media_count"`
	LateUploadsCount int64     `json:"late_uploads_count"`
	FirstActivity   *time.Time `json:"first_activity"`
	LastActivity    *time.Time `json:"last_activity"`
}

// GetSessionSummary builds the aggregate view from the event log.
func (ss *SessionService) GetSessionSummary(sessionID uint) (*SessionSummary, error) {
	session, err := ss.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	events, err := ss.tasks.Events(sessionID)
	if err != nil {
		return nil, err
	}

	summary := SessionSummary{SessionID: sessionID}
	summary.Status, err = ss.DisplayStatus(session, time.Now())
	if err != nil {
		return nil, err
	}
	for i := range events {
		ev := &events[i]
		if ev.TaskType == "stall_confirm" {
			summary.StallsCount++
		}
		if ev.FileURL != "" {
			summary.MediaCount++
			if ev.IsLate {
				summary.LateUploadsCount++
			}
		}
		t := ev.CreatedAt
		if summary.FirstActivity == nil || t.Before(*summary.FirstActivity) {
			first := t
			summary.FirstActivity = &first
		}
		if summary.LastActivity == nil || t.After(*summary.LastActivity) {
			last := t
			summary.LastActivity = &last
		}
	}
	return &summary, nil
}
