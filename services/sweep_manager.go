package services

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"fieldops_go/config"
)

// SweepManager runs the background reconciliation work: an hourly expiry
// pass over stale sessions and a daily full attendance reconciliation.
// Sweeps are eventually consistent; request-path readers never wait on
// them.
type SweepManager struct {
	sessions   *SessionService
	attendance *AttendanceService
	cron       *cron.Cron
}

func NewSweepManager() *SweepManager {
	return &SweepManager{
		sessions:   NewSessionService(),
		attendance: NewAttendanceService(),
	}
}

// Start launches the schedulers. The daily reconciliation runs on the
// configured cron spec in the operational zone; expiry runs hourly.
func (sm *SweepManager) Start() {
	sm.cron = cron.New(cron.WithLocation(config.AppConfig.Location))
	if _, err := sm.cron.AddFunc(config.AppConfig.ReconcileCronSpec, sm.RunDailyReconciliation); err != nil {
		logrus.WithError(err).Error("failed to schedule daily reconciliation")
	}
	sm.cron.Start()

	go sm.runExpiryTicker()

	logrus.WithField("cron", config.AppConfig.ReconcileCronSpec).Info("sweep manager started")
}

// Stop halts the cron scheduler.
func (sm *SweepManager) Stop() {
	if sm.cron != nil {
		sm.cron.Stop()
	}
}

func (sm *SweepManager) runExpiryTicker() {
	// Run once on startup to catch anything missed during downtime.
	sm.RunExpirySweep()

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for range ticker.C {
		sm.RunExpirySweep()
	}
}

// RunExpirySweep expires stale sessions.
func (sm *SweepManager) RunExpirySweep() {
	if _, err := sm.sessions.ExpireStaleSessions(time.Now()); err != nil {
		logrus.WithError(err).Warn("expiry sweep failed")
	}
}

// RunDailyReconciliation expires stragglers, then rebuilds attendance for
// yesterday's operational date so sessionless actors get absent marks.
func (sm *SweepManager) RunDailyReconciliation() {
	sm.RunExpirySweep()

	yesterday := OperationalDate(time.Now()).AddDate(0, 0, -1)
	if err := sm.attendance.ReconcileDate(yesterday); err != nil {
		logrus.WithError(err).Warn("daily attendance reconciliation failed")
	}
}
