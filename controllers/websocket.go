package controllers

import (
	"fieldops_go/config"
	"fieldops_go/database"
	"fieldops_go/middleware"
	"fieldops_go/models"
	ws "fieldops_go/services/websocket"

	"github.com/gofiber/fiber/v2"
	fiberws "github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v4"
)

type WebSocketController struct {
	hub *ws.Hub
}

func NewWebSocketController(hub *ws.Hub) *WebSocketController {
	return &WebSocketController{hub: hub}
}

// UpgradeCheck gates the upgrade and authenticates via the token query
// param, since browsers cannot set headers on WebSocket connects.
func (wc *WebSocketController) UpgradeCheck(c *fiber.Ctx) error {
	if !fiberws.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	tokenString := c.Query("token")
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token"})
	}

	token, err := jwt.ParseWithClaims(tokenString, &middleware.Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	claims, ok := token.Claims.(*middleware.Claims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token claims"})
	}

	var user models.User
	if err := database.DB.Where("id = ? AND status = ?", claims.UserID, "active").First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "User not found or inactive"})
	}

	c.Locals("ws_user_id", claims.UserID)
	return c.Next()
}

// Handle serves the WebSocket connection after the upgrade check
func (wc *WebSocketController) Handle() fiber.Handler {
	return fiberws.New(func(conn *fiberws.Conn) {
		userID, ok := conn.Locals("ws_user_id").(uint)
		if !ok {
			conn.Close()
			return
		}
		wc.hub.ServeFiberWS(conn, userID)
	})
}

// Stats reports connected client counts (admin only)
func (wc *WebSocketController) Stats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connected_clients": wc.hub.GetClientCount(),
	})
}
