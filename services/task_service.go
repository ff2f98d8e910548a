package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fieldops_go/database"
	"fieldops_go/models"
	"fieldops_go/services/notifications"
)

// TaskService maintains the per-(session, task_type) state machine. The
// TaskEvent log is append-only and authoritative; TaskStatus is a
// projection that must always match a rebuild from the log.
type TaskService struct {
	db         *gorm.DB
	attendance *AttendanceService
	notif      *notifications.Service
}

func NewTaskService() *TaskService {
	return &TaskService{
		db:         database.GetDB(),
		attendance: NewAttendanceService(),
		notif:      notifications.NewService(),
	}
}

// IsRequiredTaskType reports whether the task type belongs to the fixed
// required set.
func IsRequiredTaskType(taskType string) bool {
	for _, t := range models.RequiredTaskTypes {
		if t == taskType {
			return true
		}
	}
	return false
}

// advanceTaskStatus applies one event to the current status. Transitions
// are monotonic forward only. The punch task walks
// pending -> in_progress -> submitted (punch-in is the non-terminal leg);
// every other task type jumps straight to submitted. A locked task accepts
// nothing.
func advanceTaskStatus(current, taskType string, terminal bool) (string, error) {
	switch current {
	case models.TaskLocked:
		return "", Conflict("task %s is locked", taskType)
	case models.TaskSubmitted:
		// Resubmission keeps the status; the new event still becomes latest.
		return models.TaskSubmitted, nil
	}
	if taskType == "punch" && !terminal {
		return models.TaskInProgress, nil
	}
	return models.TaskSubmitted, nil
}

// rebuildTaskStatus folds the full event history into a status. Used to
// verify the live projection.
func rebuildTaskStatus(taskType string, events []models.TaskEvent, locked bool) string {
	status := models.TaskPending
	for _, ev := range events {
		next, err := advanceTaskStatus(status, taskType, ev.Terminal)
		if err != nil {
			break
		}
		status = next
	}
	if locked {
		return models.TaskLocked
	}
	return status
}

// RecordEventInput carries one submission attempt.
type RecordEventInput struct {
	Payload     models.JSON
	Latitude    *float64
	Longitude   *float64
	FileURL     string
	CaptureTime time.Time
	// Terminal is false only for the punch-in leg of the punch task.
	Terminal bool
}

// RecordEvent appends the TaskEvent and upserts the TaskStatus projection.
// Lateness is evaluated once here and frozen on the event row. Safe under
// concurrent calls for the same pair: the unique index on
// (session_id, task_type) serializes the projection and the log can always
// rebuild it.
func (ts *TaskService) RecordEvent(sessionID uint, taskType string, in RecordEventInput) (*models.TaskStatus, error) {
	var session models.Session
	if err := ts.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("session %d not found", sessionID)
		}
		return nil, err
	}
	if !IsRequiredTaskType(taskType) {
		return nil, NotFound("unknown task type %q", taskType)
	}

	captureTime := in.CaptureTime
	if captureTime.IsZero() {
		captureTime = time.Now()
	}

	status, err := ts.currentStatus(sessionID, taskType)
	if err != nil {
		return nil, err
	}
	next, err := advanceTaskStatus(status.Status, taskType, in.Terminal)
	if err != nil {
		return nil, err
	}

	event := models.TaskEvent{
		SessionID: sessionID,
		TaskType:  taskType,
		Payload:   in.Payload,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		FileURL:   in.FileURL,
		IsLate:    EvaluateLateness(taskType, captureTime),
		Terminal:  in.Terminal,
	}
	if err := ts.db.Create(&event).Error; err != nil {
		return nil, err
	}

	status.Status = next
	status.LatestEventID = &event.ID
	if err := ts.db.Save(status).Error; err != nil {
		return nil, err
	}

	if refreshesAttendance(&session) {
		if err := ts.attendance.RecomputeForDate(session.UserID, session.SessionDate); err != nil {
			logrus.WithError(err).WithField("session_id", sessionID).Warn("attendance recompute after task submission failed")
		}
	}

	ts.notif.PublishTableChanged("task_status", sessionID)
	return status, nil
}

// refreshesAttendance reports whether a submission still moves the
// attendance counts. Punch-out freezes the completion snapshot; after it
// only the reconciliation sweep refreshes the record.
func refreshesAttendance(session *models.Session) bool {
	return session.PunchOutTime == nil
}

// currentStatus fetches or creates the pending projection row for the pair.
// A create race on the unique index falls back to re-reading the winner.
func (ts *TaskService) currentStatus(sessionID uint, taskType string) (*models.TaskStatus, error) {
	var status models.TaskStatus
	err := ts.db.Where("session_id = ? AND task_type = ?", sessionID, taskType).First(&status).Error
	if err == nil {
		return &status, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	status = models.TaskStatus{
		SessionID: sessionID,
		TaskType:  taskType,
		Status:    models.TaskPending,
	}
	if err := ts.db.Create(&status).Error; err != nil {
		var winner models.TaskStatus
		if err2 := ts.db.Where("session_id = ? AND task_type = ?", sessionID, taskType).First(&winner).Error; err2 == nil {
			return &winner, nil
		}
		return nil, err
	}
	return &status, nil
}

// LockTask administratively freezes a task. Forward-only: locking is
// always allowed except re-locking, which is a conflict.
func (ts *TaskService) LockTask(sessionID uint, taskType string) (*models.TaskStatus, error) {
	if !IsRequiredTaskType(taskType) {
		return nil, NotFound("unknown task type %q", taskType)
	}
	var session models.Session
	if err := ts.db.First(&session, sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("session %d not found", sessionID)
		}
		return nil, err
	}
	status, err := ts.currentStatus(sessionID, taskType)
	if err != nil {
		return nil, err
	}
	if status.Status == models.TaskLocked {
		return nil, Conflict("task %s already locked", taskType)
	}
	status.Status = models.TaskLocked
	if err := ts.db.Save(status).Error; err != nil {
		return nil, err
	}
	ts.notif.PublishTableChanged("task_status", sessionID)
	return status, nil
}

// RebuildStatus recomputes the status for a pair from the full event log.
// The result must equal the live projection; a mismatch means the
// projection drifted and the rebuilt value wins.
func (ts *TaskService) RebuildStatus(sessionID uint, taskType string) (string, error) {
	var events []models.TaskEvent
	if err := ts.db.Where("session_id = ? AND task_type = ?", sessionID, taskType).
		Order("id ASC").Find(&events).Error; err != nil {
		return "", err
	}

	locked := false
	var status models.TaskStatus
	if err := ts.db.Where("session_id = ? AND task_type = ?", sessionID, taskType).First(&status).Error; err == nil {
		locked = status.Status == models.TaskLocked
	}

	return rebuildTaskStatus(taskType, events, locked), nil
}

// Statuses returns all projection rows for a session.
func (ts *TaskService) Statuses(sessionID uint) ([]models.TaskStatus, error) {
	var statuses []models.TaskStatus
	err := ts.db.Where("session_id = ?", sessionID).
		Preload("LatestEvent").
		Order("task_type ASC").Find(&statuses).Error
	return statuses, err
}

// Events returns the append-only log for a session.
func (ts *TaskService) Events(sessionID uint) ([]models.TaskEvent, error) {
	var events []models.TaskEvent
	err := ts.db.Where("session_id = ?", sessionID).Order("id ASC").Find(&events).Error
	return events, err
}
