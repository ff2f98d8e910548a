package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"fieldops_go/config"
	"fieldops_go/database"
	"fieldops_go/models"
)

// MarketService resolves which markets are live on a given operational day.
type MarketService struct {
	db *gorm.DB
}

func NewMarketService() *MarketService {
	return &MarketService{db: database.GetDB()}
}

// OperationalDate truncates an instant to its civil date in the operational
// zone. Every date-boundary decision in the core goes through here.
func OperationalDate(t time.Time) time.Time {
	local := t.In(config.AppConfig.Location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, config.AppConfig.Location)
}

// SameOperationalDate compares two instants by civil date in the
// operational zone.
func SameOperationalDate(a, b time.Time) bool {
	return OperationalDate(a).Equal(OperationalDate(b))
}

// marketLiveOn is the schedule rule: (active AND weekday match) OR explicit
// override, with the weekly-off day short-circuiting unless an override
// reinstates the market. Pure over its inputs so it tests without a DB.
func marketLiveOn(market *models.Market, date time.Time, hasOverride bool, weeklyOff time.Weekday) bool {
	if hasOverride {
		return true
	}
	day := OperationalDate(date)
	if day.Weekday() == weeklyOff {
		return false
	}
	if !market.IsActive || market.DayOfWeek == nil {
		return false
	}
	return int(day.Weekday()) == *market.DayOfWeek
}

// IsMarketLive reports whether the market operates on the given date.
func (ms *MarketService) IsMarketLive(marketID uint, date time.Time) (bool, error) {
	var market models.Market
	if err := ms.db.First(&market, marketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, NotFound("market %d not found", marketID)
		}
		return false, err
	}
	hasOverride, err := ms.hasOverride(marketID, date)
	if err != nil {
		return false, err
	}
	return marketLiveOn(&market, date, hasOverride, config.AppConfig.WeeklyOffDay), nil
}

func (ms *MarketService) hasOverride(marketID uint, date time.Time) (bool, error) {
	var count int64
	day := OperationalDate(date)
	err := ms.db.Model(&models.MarketScheduleOverride{}).
		Where("market_id = ? AND date = ?", marketID, day.Format("2006-01-02")).
		Count(&count).Error
	return count > 0, err
}

// LiveMarkets returns all markets live on the given date.
func (ms *MarketService) LiveMarkets(date time.Time) ([]models.Market, error) {
	var markets []models.Market
	if err := ms.db.Find(&markets).Error; err != nil {
		return nil, err
	}

	day := OperationalDate(date)
	var overridden []models.MarketScheduleOverride
	if err := ms.db.Where("date = ?", day.Format("2006-01-02")).Find(&overridden).Error; err != nil {
		return nil, err
	}
	overrideSet := make(map[uint]bool, len(overridden))
	for _, o := range overridden {
		overrideSet[o.MarketID] = true
	}

	live := make([]models.Market, 0, len(markets))
	for i := range markets {
		if marketLiveOn(&markets[i], date, overrideSet[markets[i].ID], config.AppConfig.WeeklyOffDay) {
			live = append(live, markets[i])
		}
	}
	return live, nil
}

// AddOverride marks a market live on a specific date. Idempotent: a second
// insert for the same (market, date) returns the existing row.
func (ms *MarketService) AddOverride(marketID uint, date time.Time, reason string) (*models.MarketScheduleOverride, error) {
	var market models.Market
	if err := ms.db.First(&market, marketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFound("market %d not found", marketID)
		}
		return nil, err
	}

	day := OperationalDate(date)
	var existing models.MarketScheduleOverride
	err := ms.db.Where("market_id = ? AND date = ?", marketID, day.Format("2006-01-02")).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	override := models.MarketScheduleOverride{
		MarketID: marketID,
		Date:     day,
		Reason:   reason,
	}
	if err := ms.db.Create(&override).Error; err != nil {
		return nil, err
	}
	return &override, nil
}
