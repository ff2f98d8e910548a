package controllers

import (
	"time"

	"fieldops_go/config"
	"fieldops_go/middleware"
	"fieldops_go/models"
	"fieldops_go/services"
	"fieldops_go/storage"
	"fieldops_go/utils"

	"github.com/gofiber/fiber/v2"
)

type TaskController struct {
	sessions *services.SessionService
	tasks    *services.TaskService
}

func NewTaskController() *TaskController {
	return &TaskController{
		sessions: services.NewSessionService(),
		tasks:    services.NewTaskService(),
	}
}

// SubmitTask records a submission attempt for one task type. Accepts
// multipart (media tasks) or JSON (data-only tasks like stall_confirm
// and collection). Lateness is evaluated server-side at receipt and
// frozen on the event.
func (tc *TaskController) SubmitTask(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}
	taskType := c.Params("task_type")
	if !services.IsRequiredTaskType(taskType) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown task type"})
	}

	session, err := tc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if session.UserID != claims.UserID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	in := services.RecordEventInput{
		CaptureTime: time.Now(),
		Terminal:    true,
	}
	in.Latitude, in.Longitude = parseCoordinates(c)

	if payload := c.FormValue("payload"); payload != "" {
		in.Payload = models.JSON(payload)
	} else if c.Is("json") && len(c.Body()) > 0 {
		in.Payload = models.JSON(c.Body())
	}

	if file, ferr := c.FormFile("file"); ferr == nil {
		if !utils.IsValidFileExtension(file.Filename, config.AppConfig.AllowedFileTypes()) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported file type"})
		}
		storageService, serr := storage.NewStorageService()
		if serr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
		}
		in.FileURL, serr = storageService.UploadCapture(file, taskType, claims.UserID, session.ID)
		if serr != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload file"})
		}
	}

	status, err := tc.tasks.RecordEvent(session.ID, taskType, in)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "SUBMIT_TASK", "task_events", session.ID, fiber.Map{
		"task_type": taskType,
		"status":    status.Status,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task_status": status})
}

// GetTaskStatuses lists the materialized task statuses for a session
func (tc *TaskController) GetTaskStatuses(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := tc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !canAccessSession(claims, session) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	statuses, err := tc.tasks.Statuses(session.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch task statuses"})
	}
	return c.JSON(fiber.Map{"task_statuses": statuses})
}

// GetTaskEvents returns the append-only event log for a session
func (tc *TaskController) GetTaskEvents(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := tc.sessions.GetSession(uint(id))
	if err != nil {
		return respondServiceError(c, err)
	}
	if !canAccessSession(claims, session) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Access denied"})
	}

	events, err := tc.tasks.Events(session.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch task events"})
	}
	return c.JSON(fiber.Map{"events": events})
}

// LockTask freezes a task after review (office roles)
func (tc *TaskController) LockTask(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}
	taskType := c.Params("task_type")

	status, err := tc.tasks.LockTask(uint(id), taskType)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "LOCK_TASK", "task_statuses", status.ID, fiber.Map{
		"session_id": id,
		"task_type":  taskType,
	})
	return c.JSON(fiber.Map{"task_status": status})
}

// VerifyTaskStatus rebuilds one task's status from the event log and
// compares it with the stored projection (office roles)
func (tc *TaskController) VerifyTaskStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session ID"})
	}
	taskType := c.Params("task_type")
	if !services.IsRequiredTaskType(taskType) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Unknown task type"})
	}

	rebuilt, err := tc.tasks.RebuildStatus(uint(id), taskType)
	if err != nil {
		return respondServiceError(c, err)
	}

	stored := models.TaskPending
	statuses, err := tc.tasks.Statuses(uint(id))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch task statuses"})
	}
	for _, s := range statuses {
		if s.TaskType == taskType {
			stored = s.Status
			break
		}
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"task_type":  taskType,
		"stored":     stored,
		"rebuilt":    rebuilt,
		"consistent": stored == rebuilt,
	})
}
