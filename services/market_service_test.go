package services

import (
	"testing"
	"time"

	"fieldops_go/models"
)

func intPtr(v int) *int { return &v }

func TestMarketLiveOn(t *testing.T) {
	loc := withTestConfig(t)

	// 2026-03-04 is a Wednesday, 2026-03-02 a Monday.
	wednesday := time.Date(2026, 3, 4, 12, 0, 0, 0, loc)
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, loc)

	tests := []struct {
		name        string
		market      models.Market
		date        time.Time
		hasOverride bool
		expLive     bool
	}{
		{
			name:    "weekday matches recurrence",
			market:  models.Market{IsActive: true, DayOfWeek: intPtr(3)},
			date:    wednesday,
			expLive: true,
		},
		{
			name:    "weekday does not match",
			market:  models.Market{IsActive: true, DayOfWeek: intPtr(5)},
			date:    wednesday,
			expLive: false,
		},
		{
			name:    "inactive market never live by recurrence",
			market:  models.Market{IsActive: false, DayOfWeek: intPtr(3)},
			date:    wednesday,
			expLive: false,
		},
		{
			name:    "no recurrence configured",
			market:  models.Market{IsActive: true},
			date:    wednesday,
			expLive: false,
		},
		{
			name:        "override makes a non-matching day live",
			market:      models.Market{IsActive: true, DayOfWeek: intPtr(5)},
			date:        wednesday,
			hasOverride: true,
			expLive:     true,
		},
		{
			name:    "weekly off day short-circuits recurrence",
			market:  models.Market{IsActive: true, DayOfWeek: intPtr(1)},
			date:    monday,
			expLive: false,
		},
		{
			name:        "override reinstates the weekly off day",
			market:      models.Market{IsActive: true, DayOfWeek: intPtr(1)},
			date:        monday,
			hasOverride: true,
			expLive:     true,
		},
		{
			name:        "override works for inactive markets too",
			market:      models.Market{IsActive: false},
			date:        wednesday,
			hasOverride: true,
			expLive:     true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := marketLiveOn(&tc.market, tc.date, tc.hasOverride, time.Monday)
			if got != tc.expLive {
				t.Fatalf("marketLiveOn = %v, expected %v", got, tc.expLive)
			}
		})
	}
}

func TestOperationalDate(t *testing.T) {
	loc := withTestConfig(t)

	tests := []struct {
		name    string
		instant time.Time
		expDay  string
	}{
		{
			name:    "local noon",
			instant: time.Date(2026, 3, 4, 12, 0, 0, 0, loc),
			expDay:  "2026-03-04",
		},
		{
			name: "utc evening is already next day locally",
			// 21:00 UTC on the 3rd is 02:30 IST on the 4th.
			instant: time.Date(2026, 3, 3, 21, 0, 0, 0, time.UTC),
			expDay:  "2026-03-04",
		},
		{
			name:    "local midnight stays on its own date",
			instant: time.Date(2026, 3, 4, 0, 0, 0, 0, loc),
			expDay:  "2026-03-04",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := OperationalDate(tc.instant)
			if got.Format("2006-01-02") != tc.expDay {
				t.Fatalf("OperationalDate(%v) = %s, expected %s", tc.instant, got.Format("2006-01-02"), tc.expDay)
			}
			if h, m, s := got.Clock(); h != 0 || m != 0 || s != 0 {
				t.Fatalf("expected midnight, got %02d:%02d:%02d", h, m, s)
			}
		})
	}
}

func TestSameOperationalDate(t *testing.T) {
	loc := withTestConfig(t)

	a := time.Date(2026, 3, 4, 1, 0, 0, 0, loc)
	b := time.Date(2026, 3, 4, 23, 30, 0, 0, loc)
	if !SameOperationalDate(a, b) {
		t.Fatalf("expected %v and %v on the same operational date", a, b)
	}

	// The same UTC instants viewed across the date boundary.
	c := time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC) // 22:30 IST on the 3rd
	d := time.Date(2026, 3, 3, 20, 0, 0, 0, time.UTC) // 01:30 IST on the 4th
	if SameOperationalDate(c, d) {
		t.Fatalf("expected %v and %v on different operational dates", c, d)
	}
}
