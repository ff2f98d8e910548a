package services

import (
	"testing"
	"time"

	"fieldops_go/config"
	"fieldops_go/models"
)

// withTestConfig installs an operational calendar for tests: Asia/Kolkata,
// Monday off, the default capture windows.
func withTestConfig(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	prev := config.AppConfig
	config.AppConfig = &config.Config{
		OperationalTZ: "Asia/Kolkata",
		Location:      loc,
		WeeklyOffDay:  time.Monday,
		CaptureWindows: map[string]string{
			"selfie_gps":     "10:00-10:30",
			"rate_board":     "11:00-11:30",
			"market_video":   "16:00-16:15",
			"cleaning_video": "18:00-18:30",
		},
	}
	t.Cleanup(func() { config.AppConfig = prev })
	return loc
}

func TestParseCaptureWindow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expStart int
		expEnd   int
		wantErr  bool
	}{
		{
			name:     "morning window",
			input:    "10:00-10:30",
			expStart: 600,
			expEnd:   630,
		},
		{
			name:     "evening window",
			input:    "18:00-18:30",
			expStart: 1080,
			expEnd:   1110,
		},
		{
			name:     "trailing seconds on minute field",
			input:    "16:00:00-16:15:00",
			expStart: 960,
			expEnd:   975,
		},
		{
			name:    "missing dash",
			input:   "16:00",
			wantErr: true,
		},
		{
			name:    "ends before start",
			input:   "16:15-16:00",
			wantErr: true,
		},
		{
			name:    "garbage",
			input:   "invalid",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			w, err := ParseCaptureWindow(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if w.StartMinute != tc.expStart || w.EndMinute != tc.expEnd {
				t.Fatalf("expected [%d,%d], got [%d,%d]", tc.expStart, tc.expEnd, w.StartMinute, w.EndMinute)
			}
		})
	}
}

func TestParseHourMinute(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		expHour    int
		expMinutes int
	}{
		{
			name:       "simple time",
			input:      "16:15",
			expHour:    16,
			expMinutes: 15,
		},
		{
			name:       "time with seconds",
			input:      "09:15:00",
			expHour:    9,
			expMinutes: 15,
		},
		{
			name:       "time with trailing zone",
			input:      "09:15:00Z",
			expHour:    9,
			expMinutes: 15,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			h, m, err := parseHourMinute(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.expHour || m != tc.expMinutes {
				t.Fatalf("expected %02d:%02d, got %02d:%02d", tc.expHour, tc.expMinutes, h, m)
			}
		})
	}
}

func TestCaptureWindowIsLate(t *testing.T) {
	loc := withTestConfig(t)

	window, err := ParseCaptureWindow("16:00-16:15")
	if err != nil {
		t.Fatalf("parse window: %v", err)
	}

	tests := []struct {
		name    string
		capture time.Time
		expLate bool
	}{
		{
			name:    "before window opens is not late",
			capture: time.Date(2026, 3, 4, 15, 55, 0, 0, loc),
			expLate: false,
		},
		{
			name:    "inside window",
			capture: time.Date(2026, 3, 4, 16, 10, 0, 0, loc),
			expLate: false,
		},
		{
			name:    "exactly at close",
			capture: time.Date(2026, 3, 4, 16, 15, 0, 0, loc),
			expLate: false,
		},
		{
			name:    "after close is late",
			capture: time.Date(2026, 3, 4, 16, 20, 0, 0, loc),
			expLate: true,
		},
		{
			name:    "utc instant converted to operational zone",
			capture: time.Date(2026, 3, 4, 10, 50, 0, 0, time.UTC), // 16:20 IST
			expLate: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := window.IsLate(tc.capture); got != tc.expLate {
				t.Fatalf("IsLate(%v) = %v, expected %v", tc.capture, got, tc.expLate)
			}
		})
	}
}

func TestEvaluateLateness(t *testing.T) {
	loc := withTestConfig(t)

	late := time.Date(2026, 3, 4, 19, 0, 0, 0, loc)
	if !EvaluateLateness("cleaning_video", late) {
		t.Fatalf("expected cleaning_video at 19:00 to be late")
	}
	if EvaluateLateness("cleaning_video", time.Date(2026, 3, 4, 18, 10, 0, 0, loc)) {
		t.Fatalf("expected cleaning_video at 18:10 to be on time")
	}

	// Task types without a configured window are never late.
	if EvaluateLateness("stall_confirm", late) {
		t.Fatalf("expected stall_confirm to never be late")
	}
	if EvaluateLateness("collection", late) {
		t.Fatalf("expected collection to never be late")
	}
}

func TestLatenessFrozenAtCapture(t *testing.T) {
	loc := withTestConfig(t)

	// On time at capture: 16:10 inside the 16:00-16:15 window.
	capture := time.Date(2026, 3, 4, 16, 10, 0, 0, loc)
	event := models.TaskEvent{
		TaskType: "market_video",
		IsLate:   EvaluateLateness("market_video", capture),
	}
	if event.IsLate {
		t.Fatalf("expected capture inside the window to be on time")
	}

	// Tightening the window afterward changes fresh evaluations but must
	// not touch the value frozen on the event row.
	config.AppConfig.CaptureWindows["market_video"] = "16:00-16:05"
	if !EvaluateLateness("market_video", capture) {
		t.Fatalf("expected fresh evaluation under the new window to be late")
	}
	if event.IsLate {
		t.Fatalf("stored lateness changed after a window update")
	}
}
