package services

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"fieldops_go/models"
)

func TestAdvanceTaskStatus(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		taskType  string
		terminal  bool
		expNext   string
		expKind   string
	}{
		{
			name:     "punch in leg moves pending to in_progress",
			current:  models.TaskPending,
			taskType: "punch",
			terminal: false,
			expNext:  models.TaskInProgress,
		},
		{
			name:     "punch out leg moves in_progress to submitted",
			current:  models.TaskInProgress,
			taskType: "punch",
			terminal: true,
			expNext:  models.TaskSubmitted,
		},
		{
			name:     "repeated punch in stays in_progress",
			current:  models.TaskInProgress,
			taskType: "punch",
			terminal: false,
			expNext:  models.TaskInProgress,
		},
		{
			name:     "single step task goes straight to submitted",
			current:  models.TaskPending,
			taskType: "rate_board",
			terminal: true,
			expNext:  models.TaskSubmitted,
		},
		{
			name:     "resubmission after submitted keeps submitted",
			current:  models.TaskSubmitted,
			taskType: "market_video",
			terminal: true,
			expNext:  models.TaskSubmitted,
		},
		{
			name:     "locked task rejects submission",
			current:  models.TaskLocked,
			taskType: "collection",
			terminal: true,
			expKind:  KindConflict,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			next, err := advanceTaskStatus(tc.current, tc.taskType, tc.terminal)
			if tc.expKind != "" {
				var svcErr *ServiceError
				if !errors.As(err, &svcErr) {
					t.Fatalf("expected service error, got %v", err)
				}
				if svcErr.Kind != tc.expKind {
					t.Fatalf("expected kind %s, got %s", tc.expKind, svcErr.Kind)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if next != tc.expNext {
				t.Fatalf("expected %s, got %s", tc.expNext, next)
			}
		})
	}
}

func TestAdvanceTaskStatusMonotonic(t *testing.T) {
	// A submitted task never regresses, whatever leg arrives next.
	for _, terminal := range []bool{true, false} {
		next, err := advanceTaskStatus(models.TaskSubmitted, "punch", terminal)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next != models.TaskSubmitted {
			t.Fatalf("submitted regressed to %s (terminal=%v)", next, terminal)
		}
	}
}

func TestRebuildTaskStatus(t *testing.T) {
	tests := []struct {
		name     string
		taskType string
		events   []models.TaskEvent
		locked   bool
		expState string
	}{
		{
			name:     "no events means pending",
			taskType: "selfie_gps",
			expState: models.TaskPending,
		},
		{
			name:     "single submission",
			taskType: "selfie_gps",
			events:   []models.TaskEvent{{Terminal: true}},
			expState: models.TaskSubmitted,
		},
		{
			name:     "punch with only the in leg",
			taskType: "punch",
			events:   []models.TaskEvent{{Terminal: false}},
			expState: models.TaskInProgress,
		},
		{
			name:     "punch full walk",
			taskType: "punch",
			events:   []models.TaskEvent{{Terminal: false}, {Terminal: true}},
			expState: models.TaskSubmitted,
		},
		{
			name:     "resubmissions collapse to submitted",
			taskType: "rate_board",
			events:   []models.TaskEvent{{Terminal: true}, {Terminal: true}, {Terminal: true}},
			expState: models.TaskSubmitted,
		},
		{
			name:     "lock dominates the fold",
			taskType: "rate_board",
			events:   []models.TaskEvent{{Terminal: true}},
			locked:   true,
			expState: models.TaskLocked,
		},
		{
			name:     "locked with no events",
			taskType: "collection",
			locked:   true,
			expState: models.TaskLocked,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := rebuildTaskStatus(tc.taskType, tc.events, tc.locked)
			if got != tc.expState {
				t.Fatalf("expected %s, got %s", tc.expState, got)
			}
		})
	}
}

func TestLockTaskMissingSession(t *testing.T) {
	withTestConfig(t)
	mock := withMockDB(t)

	// No session row: the lock must fail with not_found instead of
	// creating a phantom projection.
	mock.ExpectQuery("SELECT (.+) FROM `sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewTaskService().LockTask(99, "rate_board")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected service error, got %v", err)
	}
	if svcErr.Kind != KindNotFound {
		t.Fatalf("expected kind %s, got %s", KindNotFound, svcErr.Kind)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestRefreshesAttendance(t *testing.T) {
	s := models.Session{}
	if !refreshesAttendance(&s) {
		t.Fatalf("submissions before punch-out must refresh attendance")
	}
	now := time.Now()
	s.PunchOutTime = &now
	if refreshesAttendance(&s) {
		t.Fatalf("the punch-out snapshot must not move on later submissions")
	}
}

func TestIsRequiredTaskType(t *testing.T) {
	for _, taskType := range models.RequiredTaskTypes {
		if !IsRequiredTaskType(taskType) {
			t.Fatalf("expected %s to be required", taskType)
		}
	}
	for _, taskType := range []string{"", "unknown", "Punch", "selfie"} {
		if IsRequiredTaskType(taskType) {
			t.Fatalf("expected %q to be rejected", taskType)
		}
	}
}
