package models

import (
	"database/sql/driver"
	"time"

	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSON field type for GORM
type JSON []byte

func (j JSON) Value() (driver.Value, error) {
	if j.IsNull() {
		return nil, nil
	}
	return string(j), nil
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	s, ok := value.([]byte)
	if !ok {
		return nil
	}
	*j = append((*j)[0:0], s...)
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

func (j JSON) IsNull() bool {
	return len(j) == 0 || string(j) == "null"
}

// Session statuses
const (
	SessionActive    = "active"
	SessionCompleted = "completed"
	SessionFinalized = "finalized"
	SessionLocked    = "locked"
)

// Task statuses
const (
	TaskPending    = "pending"
	TaskInProgress = "in_progress"
	TaskSubmitted  = "submitted"
	TaskLocked     = "locked"
)

// Attendance statuses
const (
	AttendanceFullDay   = "full_day"
	AttendanceHalfDay   = "half_day"
	AttendanceAbsent    = "absent"
	AttendanceWeeklyOff = "weekly_off"
)

// Required task types for a full day. Order is the reporting order.
var RequiredTaskTypes = []string{
	"punch",
	"stall_confirm",
	"outside_rates",
	"selfie_gps",
	"rate_board",
	"market_video",
	"cleaning_video",
	"collection",
}

// User model
type User struct {
	BaseModel
	Username             string     `json:"username" gorm:"size:100;not null;uniqueIndex"`
	Password             string     `json:"-" gorm:"size:255;not null"`
	Email                string     `json:"email" gorm:"size:255;uniqueIndex"`
	Phone                string     `json:"phone" gorm:"size:20"`
	FullName             string     `json:"full_name" gorm:"size:200"`
	Role                 string     `json:"role" gorm:"size:50;not null;default:'employee';type:enum('employee','bdo','market_manager','admin')"` // employee, bdo, market_manager, admin
	City                 string     `json:"city" gorm:"size:100"`
	MarketID             *uint      `json:"market_id"` // home market, nullable for office roles
	Status               string     `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','inactive','suspended')"` // active, inactive, suspended
	Avatar               string     `json:"avatar" gorm:"size:500"`
	PasswordResetToken   string     `json:"-" gorm:"size:255"`
	PasswordResetExpires *time.Time `json:"-"`

	// Relationships
	Market *Market `json:"market,omitempty" gorm:"foreignKey:MarketID"`
}

// Market model
type Market struct {
	BaseModel
	Name         string   `json:"name" gorm:"size:255;not null"`
	Code         string   `json:"code" gorm:"size:50;not null;uniqueIndex"`
	City         string   `json:"city" gorm:"size:100"`
	Address      string   `json:"address" gorm:"size:500"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	IsActive     bool     `json:"is_active" gorm:"default:true"`
	DayOfWeek    *int     `json:"day_of_week"` // 0=Sunday .. 6=Saturday, nil = no weekly recurrence
	ScheduleJSON JSON     `json:"schedule_json" gorm:"type:json"`

	// Relationships
	Sessions  []Session                `json:"sessions,omitempty" gorm:"foreignKey:MarketID"`
	Overrides []MarketScheduleOverride `json:"overrides,omitempty" gorm:"foreignKey:MarketID"`
}

// MarketScheduleOverride marks a market live on a date outside its recurrence.
// Additive only.
type MarketScheduleOverride struct {
	BaseModel
	MarketID uint      `json:"market_id" gorm:"not null;uniqueIndex:idx_market_date"`
	Date     time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_market_date"`
	Reason   string    `json:"reason" gorm:"size:255"`

	// Relationships
	Market Market `json:"market,omitempty" gorm:"foreignKey:MarketID"`
}

// Session model. At most one non-terminal session per (user, session_date);
// the unique index backs the get-or-create path.
type Session struct {
	BaseModel
	UserID       uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_session_date"`
	SessionDate  time.Time  `json:"session_date" gorm:"type:date;not null;uniqueIndex:idx_user_session_date"`
	MarketDate   *time.Time `json:"market_date" gorm:"type:date"` // operational day the data belongs to; defaults to session_date
	MarketID     *uint      `json:"market_id"`                    // nullable for roles without a fixed market
	Status       string     `json:"status" gorm:"size:50;not null;default:'active';type:enum('active','completed','finalized','locked')"` // active, completed, finalized, locked
	PunchInTime  *time.Time `json:"punch_in_time"`
	PunchOutTime *time.Time `json:"punch_out_time"`

	// Relationships
	User       User         `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Market     *Market      `json:"market,omitempty" gorm:"foreignKey:MarketID"`
	TaskEvents []TaskEvent  `json:"task_events,omitempty" gorm:"foreignKey:SessionID"`
	Statuses   []TaskStatus `json:"statuses,omitempty" gorm:"foreignKey:SessionID"`
}

// TaskEvent is the append-only submission log. Rows are immutable once
// written; the latest event per (session, task_type) is authoritative.
type TaskEvent struct {
	BaseModel
	SessionID uint     `json:"session_id" gorm:"not null;index"`
	TaskType  string   `json:"task_type" gorm:"size:50;not null;index"`
	Payload   JSON     `json:"payload" gorm:"type:json"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	FileURL   string   `json:"file_url" gorm:"size:500"`
	IsLate    bool     `json:"is_late" gorm:"default:false"` // frozen at capture time
	Terminal  bool     `json:"terminal" gorm:"default:true"` // false only for the punch-in leg of the punch task

	// Relationships
	Session Session `json:"session,omitempty" gorm:"foreignKey:SessionID"`
}

// TaskStatus is a materialized projection of the TaskEvent log for one
// (session, task_type) pair. It must always equal a rebuild from the log.
type TaskStatus struct {
	BaseModel
	SessionID     uint   `json:"session_id" gorm:"not null;uniqueIndex:idx_session_task"`
	TaskType      string `json:"task_type" gorm:"size:50;not null;uniqueIndex:idx_session_task"`
	Status        string `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','in_progress','submitted','locked')"` // pending, in_progress, submitted, locked
	LatestEventID *uint  `json:"latest_event_id"`

	// Relationships
	Session     Session    `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	LatestEvent *TaskEvent `json:"latest_event,omitempty" gorm:"foreignKey:LatestEventID"`
}

// AttendanceRecord is derived per (user, date), never edited by actors.
type AttendanceRecord struct {
	BaseModel
	UserID         uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_user_att_date"`
	Date           time.Time `json:"date" gorm:"type:date;not null;uniqueIndex:idx_user_att_date"`
	Role           string    `json:"role" gorm:"size:50"`
	MarketID       *uint     `json:"market_id"`
	City           string    `json:"city" gorm:"size:100"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	Status         string    `json:"status" gorm:"size:50;not null;type:enum('full_day','half_day','absent','weekly_off')"` // full_day, half_day, absent, weekly_off

	// Relationships
	User   User    `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Market *Market `json:"market,omitempty" gorm:"foreignKey:MarketID"`
}

// Log model for activity tracking
type ActivityLog struct {
	BaseModel
	UserID     uint   `json:"user_id"`
	Action     string `json:"action" gorm:"size:100;not null"`
	Resource   string `json:"resource" gorm:"size:100;not null"`
	ResourceID uint   `json:"resource_id"`
	Details    JSON   `json:"details" gorm:"type:json"`
	IPAddress  string `json:"ip_address" gorm:"size:45"`
	UserAgent  string `json:"user_agent" gorm:"size:500"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Notification model
type Notification struct {
	BaseModel
	UserID  uint       `json:"user_id" gorm:"not null"`
	Title   string     `json:"title" gorm:"size:255;not null"`
	Message string     `json:"message" gorm:"type:text;not null"`
	Type    string     `json:"type" gorm:"size:50;not null;type:enum('info','warning','error','success')"` // info, warning, error, success
	Read    bool       `json:"read" gorm:"default:false"`
	ReadAt  *time.Time `json:"read_at"`

	// Relationships
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LogArchive model for tracking archived logs
type LogArchive struct {
	BaseModel
	FileName    string    `json:"file_name" gorm:"size:255;not null"`
	S3Key       string    `json:"s3_key" gorm:"size:500;not null"`
	StartDate   time.Time `json:"start_date" gorm:"not null"`
	EndDate     time.Time `json:"end_date" gorm:"not null"`
	RecordCount int       `json:"record_count" gorm:"not null"`
	FileSize    int64     `json:"file_size" gorm:"not null"`
	Status      string    `json:"status" gorm:"size:50;not null;default:'pending';type:enum('pending','completed','failed')"` // pending, completed, failed
	Error       string    `json:"error" gorm:"type:text"`
}
