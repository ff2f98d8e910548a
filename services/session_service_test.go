package services

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"fieldops_go/database"
	"fieldops_go/models"
)

func datePtr(t time.Time) *time.Time { return &t }

// withMockDB swaps the package database handle for a sqlmock-backed GORM
// connection for the duration of one test.
func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	prev := database.DB
	database.DB = gdb
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
	return mock
}

func TestGetOrCreateSessionReplay(t *testing.T) {
	loc := withTestConfig(t)
	mock := withMockDB(t)

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
	boundMarket := uint(7)
	mock.ExpectQuery("SELECT (.+) FROM `sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "session_date", "market_id", "status"}).
			AddRow(42, 5, day, boundMarket, models.SessionActive))

	// Replay with a different market argument: the existing session must
	// come back unchanged, its first-writer market binding intact, and no
	// insert or liveness check may run.
	otherMarket := uint(9)
	session, err := NewSessionService().GetOrCreateSession(5, day, &otherMarket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.ID != 42 {
		t.Fatalf("expected existing session 42, got %d", session.ID)
	}
	if session.MarketID == nil || *session.MarketID != boundMarket {
		t.Fatalf("market binding changed on replay: %v", session.MarketID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unexpected database activity: %v", err)
	}
}

func TestIsStale(t *testing.T) {
	loc := withTestConfig(t)

	day := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
	nextDay := time.Date(2026, 3, 5, 9, 0, 0, 0, loc)
	sameDayEvening := time.Date(2026, 3, 4, 23, 0, 0, 0, loc)

	tests := []struct {
		name     string
		session  models.Session
		now      time.Time
		expStale bool
	}{
		{
			name:     "active session on its own day",
			session:  models.Session{SessionDate: day, Status: models.SessionActive},
			now:      sameDayEvening,
			expStale: false,
		},
		{
			name:     "active session the morning after",
			session:  models.Session{SessionDate: day, Status: models.SessionActive},
			now:      nextDay,
			expStale: true,
		},
		{
			name:     "completed sessions never go stale",
			session:  models.Session{SessionDate: day, Status: models.SessionCompleted},
			now:      nextDay,
			expStale: false,
		},
		{
			name:     "finalized sessions never go stale",
			session:  models.Session{SessionDate: day, Status: models.SessionFinalized},
			now:      nextDay,
			expStale: false,
		},
		{
			name: "market date extends the operational day",
			session: models.Session{
				SessionDate: day,
				MarketDate:  datePtr(time.Date(2026, 3, 5, 0, 0, 0, 0, loc)),
				Status:      models.SessionActive,
			},
			now:      nextDay,
			expStale: false,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := isStale(&tc.session, tc.now); got != tc.expStale {
				t.Fatalf("isStale = %v, expected %v", got, tc.expStale)
			}
		})
	}
}

func TestOperationalDay(t *testing.T) {
	loc := withTestConfig(t)

	sessionDate := time.Date(2026, 3, 4, 0, 0, 0, 0, loc)
	marketDate := time.Date(2026, 3, 5, 0, 0, 0, 0, loc)

	s := models.Session{SessionDate: sessionDate}
	if got := operationalDay(&s); !got.Equal(sessionDate) {
		t.Fatalf("expected session date, got %v", got)
	}

	s.MarketDate = &marketDate
	if got := operationalDay(&s); !got.Equal(marketDate) {
		t.Fatalf("expected market date override, got %v", got)
	}
}
