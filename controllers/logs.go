package controllers

import (
	"fmt"
	"io"

	"fieldops_go/database"
	"fieldops_go/models"
	"fieldops_go/services"

	"github.com/gofiber/fiber/v2"
)

type LogController struct {
	archive *services.LogArchiveService
}

func NewLogController() *LogController {
	return &LogController{archive: services.NewLogArchiveService()}
}

// GetActivityLogs lists recent activity logs (admin only)
func (lc *LogController) GetActivityLogs(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 100)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	query := database.DB.Model(&models.ActivityLog{}).Preload("User")
	if userID := c.QueryInt("user_id", 0); userID > 0 {
		query = query.Where("user_id = ?", userID)
	}
	if resource := c.Query("resource"); resource != "" {
		query = query.Where("resource = ?", resource)
	}
	if action := c.Query("action"); action != "" {
		query = query.Where("action = ?", action)
	}

	var total int64
	query.Count(&total)

	var logs []models.ActivityLog
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&logs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch logs"})
	}

	return c.JSON(fiber.Map{
		"logs":  logs,
		"total": total,
		"page":  page,
	})
}

// GetArchives lists log archive records (admin only)
func (lc *LogController) GetArchives(c *fiber.Ctx) error {
	archives, err := lc.archive.GetArchivedLogs()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch archives"})
	}
	return c.JSON(fiber.Map{"archives": archives})
}

// DownloadArchive streams one archived log bundle from S3 (admin only)
func (lc *LogController) DownloadArchive(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid archive ID"})
	}

	reader, fileName, err := lc.archive.DownloadArchivedLogs(uint(id))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Archive not found"})
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read archive"})
	}

	c.Set("Content-Type", "application/zip")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Send(data)
}

// FlushCachedLogs moves Redis-cached activity logs into the database on
// demand (admin only)
func (lc *LogController) FlushCachedLogs(c *fiber.Ctx) error {
	if err := lc.archive.FlushCachedLogsToDatabase(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Flush failed"})
	}
	return c.JSON(fiber.Map{"message": "Cached logs flushed"})
}
