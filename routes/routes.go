package routes

import (
	"fieldops_go/controllers"
	"fieldops_go/middleware"
	"fieldops_go/services/websocket"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes configures all application routes
func SetupRoutes(app *fiber.App, wsHub *websocket.Hub) {
	// Initialize controllers
	authController := &controllers.AuthController{}
	userController := &controllers.UserController{}
	healthController := &controllers.HealthController{}
	notificationController := &controllers.NotificationController{}
	marketController := controllers.NewMarketController()
	sessionController := controllers.NewSessionController()
	taskController := controllers.NewTaskController()
	attendanceController := controllers.NewAttendanceController()
	logController := controllers.NewLogController()
	wsController := controllers.NewWebSocketController(wsHub)

	// API group
	api := app.Group("/api")

	// Public routes
	app.Get("/health", healthController.Health)
	api.Get("/health", healthController.Health)

	// Authentication routes (no middleware)
	auth := api.Group("/auth")
	auth.Post("/login", authController.Login)
	auth.Post("/forgot-password", authController.RequestPasswordReset)
	auth.Post("/reset-password-token", authController.ResetPasswordWithToken)

	// WebSocket upgrade, token passed as query param
	app.Get("/ws", wsController.UpgradeCheck, wsController.Handle())

	// Protected routes (require authentication)
	protected := api.Group("/", middleware.JWTMiddleware(), middleware.LogActivityMiddleware())

	// Profile routes
	protected.Get("/profile", authController.GetProfile)
	protected.Put("/profile/password", authController.ChangePassword)
	protected.Post("/auth/logout", authController.Logout)
	protected.Post("/profile/avatar", userController.UploadAvatar)

	// Session lifecycle (field roles submit, office roles review)
	sessions := protected.Group("/sessions")
	sessions.Post("/", middleware.RequireFieldRole(), sessionController.StartSession)
	sessions.Get("/today", middleware.RequireFieldRole(), sessionController.GetTodaySession)
	sessions.Get("/:id", sessionController.GetSession)
	sessions.Post("/:id/punch-in", middleware.RequireFieldRole(), sessionController.PunchIn)
	sessions.Post("/:id/punch-out", middleware.RequireFieldRole(), sessionController.PunchOut)
	sessions.Get("/:id/summary", sessionController.GetSessionSummary)

	// Task submissions and review
	sessions.Post("/:id/tasks/:task_type", middleware.RequireFieldRole(), taskController.SubmitTask)
	sessions.Get("/:id/tasks", taskController.GetTaskStatuses)
	sessions.Get("/:id/events", taskController.GetTaskEvents)
	sessions.Post("/:id/tasks/:task_type/lock", middleware.RequireOffice(), taskController.LockTask)
	sessions.Get("/:id/tasks/:task_type/verify", middleware.RequireOffice(), taskController.VerifyTaskStatus)

	// Markets and schedules
	markets := protected.Group("/markets")
	markets.Get("/", marketController.GetMarkets)
	markets.Get("/live", marketController.LiveMarkets)
	markets.Get("/:id", marketController.GetMarket)
	markets.Get("/:id/is-live", marketController.IsLive)
	markets.Post("/", middleware.RequireOffice(), marketController.CreateMarket)
	markets.Put("/:id", middleware.RequireOffice(), marketController.UpdateMarket)
	markets.Post("/:id/overrides", middleware.RequireOffice(), marketController.AddOverride)

	// Attendance
	attendance := protected.Group("/attendance")
	attendance.Get("/", middleware.RequireOffice(), attendanceController.GetAttendanceRange)
	attendance.Get("/me", attendanceController.GetMyAttendance)
	attendance.Get("/users/:id", middleware.RequireOffice(), attendanceController.GetUserAttendance)
	attendance.Get("/export", middleware.RequireOffice(), attendanceController.ExportAttendance)

	// Notifications
	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationController.GetNotifications)
	notifications.Get("/unread-count", notificationController.GetUnreadCount)
	notifications.Put("/:id/read", notificationController.MarkAsRead)
	notifications.Put("/read-all", notificationController.MarkAllAsRead)

	// User management (admin)
	users := protected.Group("/users", middleware.RequireAdmin())
	users.Get("/", userController.GetUsers)
	users.Get("/:id", userController.GetUser)
	users.Post("/", userController.CreateUser)
	users.Put("/:id", userController.UpdateUser)
	users.Delete("/:id", userController.DeleteUser)

	// Admin operations
	admin := protected.Group("/admin", middleware.RequireAdmin())
	admin.Post("/sweeps/expire", sessionController.ExpireStaleSessions)
	admin.Post("/attendance/reconcile", attendanceController.Reconcile)
	admin.Get("/ws/stats", wsController.Stats)
	admin.Get("/logs", logController.GetActivityLogs)
	admin.Get("/logs/archives", logController.GetArchives)
	admin.Get("/logs/archives/:id/download", logController.DownloadArchive)
	admin.Post("/logs/flush", logController.FlushCachedLogs)
}
