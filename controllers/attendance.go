package controllers

import (
	"fmt"
	"time"

	"fieldops_go/middleware"
	"fieldops_go/models"
	"fieldops_go/services"
	"fieldops_go/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type AttendanceController struct {
	attendance *services.AttendanceService
}

func NewAttendanceController() *AttendanceController {
	return &AttendanceController{attendance: services.NewAttendanceService()}
}

// parseRange reads from/to query params. Defaults to the last 30 days.
func parseRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	from := now.AddDate(0, 0, -30)
	to := now

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("to before from")
	}
	return from, to, nil
}

// GetMyAttendance returns the current user's derived attendance records
func (ac *AttendanceController) GetMyAttendance(c *fiber.Ctx) error {
	claims, err := middleware.GetCurrentClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
	}
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date range"})
	}

	records, err := ac.attendance.GetAttendance(claims.UserID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	out := make([]utils.AttendanceDTO, 0, len(records))
	for _, r := range records {
		out = append(out, utils.ToAttendanceDTO(r))
	}
	return c.JSON(fiber.Map{"attendance": out})
}

// GetUserAttendance returns one user's attendance (office roles)
func (ac *AttendanceController) GetUserAttendance(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user ID"})
	}
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date range"})
	}

	records, err := ac.attendance.GetAttendance(uint(id), from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	out := make([]utils.AttendanceDTO, 0, len(records))
	for _, r := range records {
		out = append(out, utils.ToAttendanceDTO(r))
	}
	return c.JSON(fiber.Map{"attendance": out})
}

// GetAttendanceRange returns attendance over a range, for all actors or
// one actor when actor_id is given (office roles)
func (ac *AttendanceController) GetAttendanceRange(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date range"})
	}

	var records []models.AttendanceRecord
	if actorID := c.QueryInt("actor_id", 0); actorID > 0 {
		records, err = ac.attendance.GetAttendance(uint(actorID), from, to)
	} else {
		records, err = ac.attendance.GetAttendanceRange(from, to)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	out := make([]utils.AttendanceDTO, 0, len(records))
	for _, r := range records {
		out = append(out, utils.ToAttendanceDTO(r))
	}
	return c.JSON(fiber.Map{"attendance": out, "count": len(out)})
}

// Reconcile recomputes attendance for a date on demand (admin only)
func (ac *AttendanceController) Reconcile(c *fiber.Ctx) error {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
	}

	if err := ac.attendance.ReconcileDate(date); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Reconciliation failed"})
	}

	middleware.LogActivity(c, "RECONCILE", "attendance_records", 0, fiber.Map{"date": req.Date})
	return c.JSON(fiber.Map{"message": "Attendance reconciled", "date": req.Date})
}

// ExportAttendance streams an xlsx report of attendance over a range
// (office roles)
func (ac *AttendanceController) ExportAttendance(c *fiber.Ctx) error {
	from, to, err := parseRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid date range"})
	}

	records, err := ac.attendance.GetAttendanceRange(from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to fetch attendance"})
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Attendance"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Date", "Username", "Full Name", "Role", "City", "Market", "Completed", "Total", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, r := range records {
		marketName := ""
		if r.Market != nil {
			marketName = r.Market.Name
		}
		values := []interface{}{
			r.Date.Format("2006-01-02"),
			r.User.Username,
			r.User.FullName,
			r.Role,
			r.City,
			marketName,
			r.CompletedTasks,
			r.TotalTasks,
			r.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to build export"})
	}

	fileName := fmt.Sprintf("attendance_%s_%s.xlsx",
		services.OperationalDate(from).Format("2006-01-02"),
		services.OperationalDate(to).Format("2006-01-02"))
	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	middleware.LogActivity(c, "EXPORT", "attendance_records", 0, fiber.Map{"rows": len(records)})
	return c.Send(buf.Bytes())
}
