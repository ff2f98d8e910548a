package controllers

import (
	"strconv"
	"time"

	"fieldops_go/config"
	"fieldops_go/middleware"
	"fieldops_go/models"
	"fieldops_go/services"
	"fieldops_go/storage"
	"fieldops_go/utils"

	"github.com/gofiber/fiber/v2"
)

type SessionController struct {
	sessions *services.SessionService
	tasks    *services.TaskService
}

func NewSessionController() *SessionController {
	return &SessionController{
		sessions: services.NewSessionService(),
		tasks:    services.NewTaskService(),
	}
}

// canAccessSession enforces ownership: field roles see only their own
// sessions, office roles see everything.
func canAccessSession(claims *middleware.Claims, session *models.Session) bool {
	if claims.Role == "admin" || claims.Role == "market_manager" {
		return true
	}
	return session.UserID == claims.UserID
}

// StartSession gets or creates today's session for the current user.
// Replays return the existing session unchanged.
func (sc *SessionController) StartSession(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var req struct {
		MarketID *uint `json:"market_id"`
	}
	// Body is optional; the user's home market is the default binding.
	_ = c.BodyParser(&req)
	marketID := req.MarketID
	if marketID == nil {
		marketID = claims.MarketID
	}

	session, err := sc.sessions.GetOrCreateSession(claims.UserID, time.Now(), marketID)
	if err != nil {
		return respondServiceError(c, err)
	}

	display, err := sc.sessions.DisplayStatus(session, time.Now())
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "START_SESSION", "sessions", session.ID, fiber.Map{
		"session_date": session.SessionDate.Format("2006-01-02"),
	})
	return c.JSON(fiber.Map{"session": utils.ToSessionDTO(*session, display)})
}

// GetTodaySession returns the current user's session for today, if any
func (sc *SessionController) GetTodaySession(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	session, err := sc.sessions.FindSessionByDate(claims.UserID, time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch session"})
	}
	if session == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No session for today"})
	}

	display, err := sc.sessions.DisplayStatus(session, time.Now())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"session": utils.ToSessionDTO(*session, display)})
}

// GetSession returns one session with its task statuses
func (sc *SessionController) GetSession(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := sc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !canAccessSession(claims, session) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	display, err := sc.sessions.DisplayStatus(session, time.Now())
	if err != nil {
		return respondServiceError(c, err)
	}
	statuses, err := sc.tasks.Statuses(session.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch task statuses"})
	}

	return c.JSON(fiber.Map{
		"session":       utils.ToSessionDTO(*session, display),
		"task_statuses": statuses,
	})
}

// PunchIn starts the working day. Multipart: selfie file plus latitude
// and longitude form fields.
func (sc *SessionController) PunchIn(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := sc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if session.UserID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	lat, lng := parseCoordinates(c)

	selfieURL := ""
	if file, ferr := c.FormFile("selfie"); ferr == nil {
		if !utils.IsValidFileExtension(file.Filename, config.AppConfig.AllowedFileTypes()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported file type"})
		}
		storageService, serr := storage.NewStorageService()
		if serr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
		}
		selfieURL, serr = storageService.UploadCapture(file, "selfies", claims.UserID, session.ID)
		if serr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload selfie"})
		}
	}

	session, err = sc.sessions.PunchIn(session.ID, lat, lng, selfieURL)
	if err != nil {
		return respondServiceError(c, err)
	}

	display, err := sc.sessions.DisplayStatus(session, time.Now())
	if err != nil {
		return respondServiceError(c, err)
	}
	middleware.LogActivity(c, "PUNCH_IN", "sessions", session.ID, nil)
	return c.JSON(fiber.Map{"session": utils.ToSessionDTO(*session, display)})
}

// PunchOut closes the working day and snapshots completion for attendance
func (sc *SessionController) PunchOut(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := sc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if session.UserID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	session, err = sc.sessions.PunchOut(session.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	display, err := sc.sessions.DisplayStatus(session, time.Now())
	if err != nil {
		return respondServiceError(c, err)
	}
	middleware.LogActivity(c, "PUNCH_OUT", "sessions", session.ID, nil)
	return c.JSON(fiber.Map{"session": utils.ToSessionDTO(*session, display)})
}

// GetSessionSummary returns the aggregate review view of a session
func (sc *SessionController) GetSessionSummary(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := sc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !canAccessSession(claims, session) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	summary, err := sc.sessions.GetSessionSummary(session.ID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"summary": summary})
}

// ExpireStaleSessions runs the expiry sweep on demand (admin only)
func (sc *SessionController) ExpireStaleSessions(c *fiber.Ctx) error {
	expired, err := sc.sessions.ExpireStaleSessions(time.Now())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Expiry sweep failed"})
	}

	ids := make([]uint, 0, len(expired))
	for _, s := range expired {
		ids = append(ids, s.ID)
	}
	middleware.LogActivity(c, "EXPIRE_SWEEP", "sessions", 0, fiber.Map{"expired": ids})
	return c.JSON(fiber.Map{
		"expired_count": len(expired),
		"session_ids":   ids,
	})
}

func parseCoordinates(c *fiber.Ctx) (*float64, *float64) {
	var lat, lng *float64
	if v := c.FormValue("latitude"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			lat = &f
		}
	}
	if v := c.FormValue("longitude"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			lng = &f
		}
	}
	return lat, lng
}
