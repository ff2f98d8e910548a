package controllers

import (
	"fieldops_go/config"
	"fieldops_go/database"
	"fieldops_go/middleware"
	"fieldops_go/models"
	"fieldops_go/storage"
	"fieldops_go/utils"

	"github.com/gofiber/fiber/v2"
)

type UserController struct{}

// GetUsers returns users with pagination, filterable by role and city
func (uc *UserController) GetUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := database.DB.Model(&models.User{}).Preload("Market")
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var total int64
	query.Count(&total)

	var users []models.User
	if err := query.Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch users"})
	}

	return c.JSON(fiber.Map{
		"users": users,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetUser returns one user by id
func (uc *UserController) GetUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.Preload("Market").First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// CreateUser registers a new field or office user (admin only)
func (uc *UserController) CreateUser(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		FullName string `json:"full_name"`
		Role     string `json:"role"`
		City     string `json:"city"`
		MarketID *uint  `json:"market_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if len(req.Username) < 3 || len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Username or password too short"})
	}
	if !utils.IsValidRole(req.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to hash password"})
	}

	user := models.User{
		Username: utils.SanitizeString(req.Username),
		Password: hashed,
		Email:    utils.SanitizeString(req.Email),
		Phone:    req.Phone,
		FullName: utils.SanitizeString(req.FullName),
		Role:     req.Role,
		City:     req.City,
		MarketID: req.MarketID,
		Status:   "active",
	}
	if err := database.DB.Create(&user).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Username or email already exists"})
	}

	middleware.LogActivity(c, "CREATE", "users", user.ID, fiber.Map{"username": user.Username, "role": user.Role})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user})
}

// UpdateUser updates user profile fields (admin only)
func (uc *UserController) UpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	var req struct {
		Email    *string `json:"email"`
		Phone    *string `json:"phone"`
		FullName *string `json:"full_name"`
		Role     *string `json:"role"`
		City     *string `json:"city"`
		MarketID *uint   `json:"market_id"`
		Status   *string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.Role != nil {
		if !utils.IsValidRole(*req.Role) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid role"})
		}
		user.Role = *req.Role
	}
	if req.Status != nil {
		if !utils.IsValidStatus(*req.Status) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid status"})
		}
		user.Status = *req.Status
	}
	if req.Email != nil {
		user.Email = utils.SanitizeString(*req.Email)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.FullName != nil {
		user.FullName = utils.SanitizeString(*req.FullName)
	}
	if req.City != nil {
		user.City = *req.City
	}
	if req.MarketID != nil {
		user.MarketID = req.MarketID
	}

	if err := database.DB.Save(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update user"})
	}

	middleware.LogActivity(c, "UPDATE", "users", user.ID, nil)
	return c.JSON(fiber.Map{"user": user})
}

// DeleteUser soft-deletes a user (admin only)
func (uc *UserController) DeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	var user models.User
	if err := database.DB.First(&user, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}

	if err := database.DB.Delete(&user).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete user"})
	}

	middleware.LogActivity(c, "DELETE", "users", user.ID, fiber.Map{"username": user.Username})
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// UploadAvatar stores a profile image and saves its reference
func (uc *UserController) UploadAvatar(c *fiber.Ctx) error {
	user, err := middleware.GetCurrentUser(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}

	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Avatar file is required"})
	}
	if !utils.IsValidFileExtension(file.Filename, config.AppConfig.AllowedFileTypes()) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Unsupported file type"})
	}

	storageService, err := storage.NewStorageService()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Storage unavailable"})
	}

	url, err := storageService.UploadCapture(file, "avatars", user.ID, 0)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to upload avatar"})
	}

	if err := database.DB.Model(user).Update("avatar", url).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save avatar"})
	}

	return c.JSON(fiber.Map{"avatar": url})
}
