package controllers

import (
	"time"

	"fieldops_go/database"
	"fieldops_go/middleware"
	"fieldops_go/models"

	"github.com/gofiber/fiber/v2"
)

type NotificationController struct{}

// GetNotifications returns the current user's notifications, newest first
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Where("user_id = ?", claims.UserID)
	if c.Query("unread") == "true" {
		query = query.Where("`read` = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&notifications).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch notifications"})
	}

	var unread int64
	database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", claims.UserID, false).
		Count(&unread)

	return c.JSON(fiber.Map{
		"notifications": notifications,
		"unread_count":  unread,
		"page":          page,
	})
}

// MarkAsRead marks one notification as read
func (nc *NotificationController) MarkAsRead(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification ID"})
	}

	var notification models.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", id, claims.UserID).
		First(&notification).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Notification not found"})
	}

	now := time.Now()
	notification.Read = true
	notification.ReadAt = &now
	if err := database.DB.Save(&notification).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notification"})
	}

	return c.JSON(fiber.Map{"notification": notification})
}

// MarkAllAsRead marks every unread notification of the current user
func (nc *NotificationController) MarkAllAsRead(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	now := time.Now()
	result := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", claims.UserID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update notifications"})
	}

	return c.JSON(fiber.Map{"updated": result.RowsAffected})
}

// GetUnreadCount returns just the unread counter for badges
func (nc *NotificationController) GetUnreadCount(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	var unread int64
	if err := database.DB.Model(&models.Notification{}).
		Where("user_id = ? AND `read` = ?", claims.UserID, false).
		Count(&unread).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to count notifications"})
	}

	return c.JSON(fiber.Map{"unread_count": unread})
}
