package controllers

import (
	"context"
	"time"

	"fieldops_go/database"

	"github.com/gofiber/fiber/v2"
)

type HealthController struct{}

// Health reports service liveness plus database and Redis reachability
func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := "ok"
	checks := fiber.Map{}

	sqlDB, err := database.DB.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		status = "degraded"
		checks["database"] = "down"
	} else {
		checks["database"] = "up"
	}

	if database.RedisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := database.RedisClient.Ping(ctx).Err(); err != nil {
			status = "degraded"
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}
	} else {
		checks["redis"] = "disabled"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
