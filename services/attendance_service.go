package services

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"fieldops_go/config"
	"fieldops_go/database"
	"fieldops_go/models"
	"fieldops_go/services/notifications"
)

// AttendanceService derives the daily attendance classification from
// session and task-completion facts. Records are purely derived: a fresh
// recomputation over the same facts must always yield the same row.
type AttendanceService struct {
	db    *gorm.DB
	notif *notifications.Service
}

func NewAttendanceService() *AttendanceService {
	return &AttendanceService{
		db:    database.GetDB(),
		notif: notifications.NewService(),
	}
}

// deriveAttendanceStatus is the classification rule. Weekly off dominates
// everything; a sessionless past day is absent; otherwise the completed
// count decides. Empty result means no record should exist (future day
// with no session yet).
func deriveAttendanceStatus(hasSession bool, completed, total int, weeklyOff, datePast bool) string {
	if weeklyOff {
		return models.AttendanceWeeklyOff
	}
	if !hasSession {
		if datePast {
			return models.AttendanceAbsent
		}
		return ""
	}
	switch {
	case completed >= total:
		return models.AttendanceFullDay
	case completed > 0:
		return models.AttendanceHalfDay
	default:
		return models.AttendanceAbsent
	}
}

// countCompleted counts required tasks in submitted or locked state.
func (as *AttendanceService) countCompleted(sessionID uint) (int, error) {
	var count int64
	err := as.db.Model(&models.TaskStatus{}).
		Where("session_id = ? AND task_type IN ? AND status IN ?",
			sessionID, models.RequiredTaskTypes,
			[]string{models.TaskSubmitted, models.TaskLocked}).
		Count(&count).Error
	return int(count), err
}

// RecomputeForDate refreshes the attendance record for one (actor, date).
// Called after every session/task mutation for that day and again by the
// daily sweep; both paths run the same derivation.
func (as *AttendanceService) RecomputeForDate(userID uint, date time.Time) error {
	day := OperationalDate(date)

	var user models.User
	if err := as.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotFound("user %d not found", userID)
		}
		return err
	}

	var session models.Session
	hasSession := true
	err := as.db.Where("user_id = ? AND session_date = ?", userID, day.Format("2006-01-02")).
		First(&session).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		hasSession = false
	}

	total := len(models.RequiredTaskTypes)
	completed := 0
	if hasSession {
		completed, err = as.countCompleted(session.ID)
		if err != nil {
			return err
		}
	}

	weeklyOff := day.Weekday() == config.AppConfig.WeeklyOffDay
	datePast := day.Before(OperationalDate(time.Now()))
	status := deriveAttendanceStatus(hasSession, completed, total, weeklyOff, datePast)
	if status == "" {
		return nil
	}

	marketID := user.MarketID
	if hasSession && session.MarketID != nil {
		marketID = session.MarketID
	}

	var record models.AttendanceRecord
	err = as.db.Where("user_id = ? AND date = ?", userID, day.Format("2006-01-02")).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record = models.AttendanceRecord{UserID: userID, Date: day}
	} else if err != nil {
		return err
	}

	record.Role = user.Role
	record.MarketID = marketID
	record.City = user.City
	record.TotalTasks = total
	record.CompletedTasks = completed
	record.Status = status
	if err := as.db.Save(&record).Error; err != nil {
		return err
	}

	as.notif.PublishTableChanged("attendance_records", record.ID)
	return nil
}

// ReconcileDate runs the daily sweep for one operational date: every
// field actor gets a record, including absent marks for actors who never
// opened a session.
func (as *AttendanceService) ReconcileDate(date time.Time) error {
	day := OperationalDate(date)

	var users []models.User
	if err := as.db.Where("role IN ? AND status = ?",
		[]string{"employee", "bdo", "market_manager"}, "active").
		Find(&users).Error; err != nil {
		return err
	}

	var failed int
	for i := range users {
		if err := as.RecomputeForDate(users[i].ID, day); err != nil {
			logrus.WithError(err).WithField("user_id", users[i].ID).Warn("attendance reconcile failed for user")
			failed++
		}
	}

	logrus.WithFields(logrus.Fields{
		"date":   day.Format("2006-01-02"),
		"actors": len(users),
		"failed": failed,
	}).Info("attendance reconciliation completed")
	return nil
}

// GetAttendance returns records for an actor over an inclusive date range.
func (as *AttendanceService) GetAttendance(userID uint, from, to time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := as.db.Where("user_id = ? AND date BETWEEN ? AND ?",
		userID,
		OperationalDate(from).Format("2006-01-02"),
		OperationalDate(to).Format("2006-01-02")).
		Preload("Market").
		Order("date ASC").
		Find(&records).Error
	return records, err
}

// GetAttendanceRange returns records for all actors over a range, for
// office review and export.
func (as *AttendanceService) GetAttendanceRange(from, to time.Time) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := as.db.Where("date BETWEEN ? AND ?",
		OperationalDate(from).Format("2006-01-02"),
		OperationalDate(to).Format("2006-01-02")).
		Preload("User").
		Preload("Market").
		Order("date ASC, user_id ASC").
		Find(&records).Error
	return records, err
}
