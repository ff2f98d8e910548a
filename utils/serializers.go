package utils

import (
	"time"

	"fieldops_go/models"
)

// Compact representations used across APIs
type UserShort struct {
	ID       uint   `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Role     string `json:"role,omitempty"`
}

type MarketShort struct {
	ID   uint   `json:"id"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
	City string `json:"city,omitempty"`
}

type AttendanceDTO struct {
	ID             uint        `json:"id"`
	Date           string      `json:"date"`
	Role           string      `json:"role"`
	City           string      `json:"city"`
	TotalTasks     int         `json:"total_tasks"`
	CompletedTasks int         `json:"completed_tasks"`
	Status         string      `json:"status"`
	User           UserShort   `json:"user"`
	Market         MarketShort `json:"market"`
}

type SessionDTO struct {
	ID           uint        `json:"id"`
	SessionDate  string      `json:"session_date"`
	MarketDate   string      `json:"market_date,omitempty"`
	Status       string      `json:"status"`
	PunchInTime  *time.Time  `json:"punch_in_time"`
	PunchOutTime *time.Time  `json:"punch_out_time"`
	Market       MarketShort `json:"market"`
}

// ToAttendanceDTO maps an AttendanceRecord to the compact DTO.
// Assumes the caller preloaded User and Market when possible.
func ToAttendanceDTO(r models.AttendanceRecord) AttendanceDTO {
	dto := AttendanceDTO{
		ID:             r.ID,
		Date:           r.Date.Format("2006-01-02"),
		Role:           r.Role,
		City:           r.City,
		TotalTasks:     r.TotalTasks,
		CompletedTasks: r.CompletedTasks,
		Status:         r.Status,
	}
	if r.User.ID != 0 {
		dto.User = UserShort{
			ID:       r.User.ID,
			Username: r.User.Username,
			FullName: r.User.FullName,
			Role:     r.User.Role,
		}
	} else {
		dto.User = UserShort{ID: r.UserID}
	}
	if r.Market != nil {
		dto.Market = MarketShort{
			ID:   r.Market.ID,
			Name: r.Market.Name,
			Code: r.Market.Code,
			City: r.Market.City,
		}
	}
	return dto
}

// ToSessionDTO maps a Session, substituting the display status computed
// by the caller (incomplete_expired is never stored).
func ToSessionDTO(s models.Session, displayStatus string) SessionDTO {
	dto := SessionDTO{
		ID:           s.ID,
		SessionDate:  s.SessionDate.Format("2006-01-02"),
		Status:       displayStatus,
		PunchInTime:  s.PunchInTime,
		PunchOutTime: s.PunchOutTime,
	}
	if s.MarketDate != nil {
		dto.MarketDate = s.MarketDate.Format("2006-01-02")
	}
	if s.Market != nil {
		dto.Market = MarketShort{
			ID:   s.Market.ID,
			Name: s.Market.Name,
			Code: s.Market.Code,
			City: s.Market.City,
		}
	}
	return dto
}
