package controllers

import (
	"time"

	"fieldops_go/database"
	"fieldops_go/middleware"
	"fieldops_go/models"
	"fieldops_go/services"

	"github.com/gofiber/fiber/v2"
)

type MarketController struct {
	markets *services.MarketService
}

func NewMarketController() *MarketController {
	return &MarketController{markets: services.NewMarketService()}
}

// parseDateParam reads a YYYY-MM-DD query param, defaulting to today in the
// operational zone.
func parseDateParam(c *fiber.Ctx, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return services.OperationalDate(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// GetMarkets lists markets, filterable by city and active flag
func (mc *MarketController) GetMarkets(c *fiber.Ctx) error {
	query := database.DB.Model(&models.Market{})
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var markets []models.Market
	if err := query.Order("name ASC").Find(&markets).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch markets"})
	}

	return c.JSON(fiber.Map{"markets": markets})
}

// GetMarket returns one market with its overrides
func (mc *MarketController) GetMarket(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid market ID"})
	}

	var market models.Market
	if err := database.DB.Preload("Overrides").First(&market, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Market not found"})
	}

	return c.JSON(fiber.Map{"market": market})
}

// CreateMarket registers a new market (office roles)
func (mc *MarketController) CreateMarket(c *fiber.Ctx) error {
	var req struct {
		Name      string      `json:"name"`
		Code      string      `json:"code"`
		City      string      `json:"city"`
		Address   string      `json:"address"`
		Latitude  *float64    `json:"latitude"`
		Longitude *float64    `json:"longitude"`
		DayOfWeek *int        `json:"day_of_week"`
		Schedule  models.JSON `json:"schedule_json"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if req.Name == "" || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Name and code are required"})
	}
	if req.DayOfWeek != nil && (*req.DayOfWeek < 0 || *req.DayOfWeek > 6) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_week must be between 0 and 6"})
	}

	market := models.Market{
		Name:         req.Name,
		Code:         req.Code,
		City:         req.City,
		Address:      req.Address,
		Latitude:     req.Latitude,
		Longitude:    req.Longitude,
		IsActive:     true,
		DayOfWeek:    req.DayOfWeek,
		ScheduleJSON: req.Schedule,
	}
	if err := database.DB.Create(&market).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Market code already exists"})
	}

	middleware.LogActivity(c, "CREATE", "markets", market.ID, fiber.Map{"code": market.Code})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"market": market})
}

// UpdateMarket updates market details or schedule (office roles)
func (mc *MarketController) UpdateMarket(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid market ID"})
	}

	var market models.Market
	if err := database.DB.First(&market, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Market not found"})
	}

	var req struct {
		Name      *string     `json:"name"`
		City      *string     `json:"city"`
		Address   *string     `json:"address"`
		Latitude  *float64    `json:"latitude"`
		Longitude *float64    `json:"longitude"`
		IsActive  *bool       `json:"is_active"`
		DayOfWeek *int        `json:"day_of_week"`
		Schedule  models.JSON `json:"schedule_json"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Name != nil {
		market.Name = *req.Name
	}
	if req.City != nil {
		market.City = *req.City
	}
	if req.Address != nil {
		market.Address = *req.Address
	}
	if req.Latitude != nil {
		market.Latitude = req.Latitude
	}
	if req.Longitude != nil {
		market.Longitude = req.Longitude
	}
	if req.IsActive != nil {
		market.IsActive = *req.IsActive
	}
	if req.DayOfWeek != nil {
		if *req.DayOfWeek < 0 || *req.DayOfWeek > 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "day_of_week must be between 0 and 6"})
		}
		market.DayOfWeek = req.DayOfWeek
	}
	if !req.Schedule.IsNull() {
		market.ScheduleJSON = req.Schedule
	}

	if err := database.DB.Save(&market).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update market"})
	}

	middleware.LogActivity(c, "UPDATE", "markets", market.ID, nil)
	return c.JSON(fiber.Map{"market": market})
}

// IsLive reports whether a market operates on a given date
func (mc *MarketController) IsLive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid market ID"})
	}
	date, err := parseDateParam(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	live, err := mc.markets.IsMarketLive(uint(id), date)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"market_id": id,
		"date":      services.OperationalDate(date).Format("2006-01-02"),
		"is_live":   live,
	})
}

// LiveMarkets lists the markets operating on a given date
func (mc *MarketController) LiveMarkets(c *fiber.Ctx) error {
	date, err := parseDateParam(c, "date")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	markets, err := mc.markets.LiveMarkets(date)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve live markets"})
	}

	return c.JSON(fiber.Map{
		"date":    services.OperationalDate(date).Format("2006-01-02"),
		"markets": markets,
	})
}

// AddOverride schedules a market live on an extra date (office roles)
func (mc *MarketController) AddOverride(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid market ID"})
	}

	var req struct {
		Date   string `json:"date"`
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	override, err := mc.markets.AddOverride(uint(id), date, req.Reason)
	if err != nil {
		return respondServiceError(c, err)
	}

	middleware.LogActivity(c, "CREATE", "market_overrides", override.ID, fiber.Map{
		"market_id": id,
		"date":      req.Date,
	})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"override": override})
}
