package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fieldops_go/config"
)

// CaptureWindow is an allowed time-of-day range in the operational zone.
// The same window applies every operational day.
type CaptureWindow struct {
	StartMinute int // minutes after midnight
	EndMinute   int
}

// ParseCaptureWindow parses "HH:MM-HH:MM".
func ParseCaptureWindow(s string) (CaptureWindow, error) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return CaptureWindow{}, fmt.Errorf("invalid capture window %q", s)
	}
	sh, sm, err := parseHourMinute(parts[0])
	if err != nil {
		return CaptureWindow{}, err
	}
	eh, em, err := parseHourMinute(parts[1])
	if err != nil {
		return CaptureWindow{}, err
	}
	w := CaptureWindow{StartMinute: sh*60 + sm, EndMinute: eh*60 + em}
	if w.EndMinute < w.StartMinute {
		return CaptureWindow{}, fmt.Errorf("capture window %q ends before it starts", s)
	}
	return w, nil
}

// parseHourMinute parses "HH:MM" with optional trailing seconds/zone.
func parseHourMinute(s string) (int, int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("invalid time-of-day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	// strip seconds or zone suffix from the minute field
	min := parts[1]
	for i, r := range min {
		if r < '0' || r > '9' {
			min = min[:i]
			break
		}
	}
	m, err := strconv.Atoi(min)
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// IsLate reports whether a capture at t falls after the window's end.
// Capture before the window opens is accepted, not late. Pure function:
// the result is evaluated once at capture time and frozen on the event
// row, never recomputed against a stored record.
func (w CaptureWindow) IsLate(t time.Time) bool {
	local := t.In(config.AppConfig.Location)
	minute := local.Hour()*60 + local.Minute()
	return minute > w.EndMinute
}

// WindowForTask returns the configured capture window for a task type.
// Task types without a window are never flagged late.
func WindowForTask(taskType string) (CaptureWindow, bool) {
	raw, ok := config.AppConfig.CaptureWindows[taskType]
	if !ok {
		return CaptureWindow{}, false
	}
	w, err := ParseCaptureWindow(raw)
	if err != nil {
		return CaptureWindow{}, false
	}
	return w, true
}

// EvaluateLateness classifies a capture for a task type at the given
// instant. Missing window means on time.
func EvaluateLateness(taskType string, captureTime time.Time) bool {
	w, ok := WindowForTask(taskType)
	if !ok {
		return false
	}
	return w.IsLate(captureTime)
}
