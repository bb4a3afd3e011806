package model

import "gorm.io/datatypes"

// 通知类型
const (
	NotifyAttendanceUpdate   = "attendance_update"
	NotifyLowAttendance      = "low_attendance"
	NotifyWeeklyReport       = "weekly_report"
	NotifyEnrollmentDecision = "enrollment_decision"
	NotifyLeaveDecision      = "leave_decision"
)

// Notification 站内通知，对应表 notifications
type Notification struct {
	NotificationID string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string         `gorm:"type:uuid;not null"                             json:"user_id"`
	Kind           string         `gorm:"type:varchar(50);not null"                      json:"kind"`
	Title          string         `gorm:"type:varchar(200);not null"                     json:"title"`
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	Payload        datatypes.JSON `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	IsRead         bool           `gorm:"not null;default:false"                         json:"is_read"`
	Emailed        bool           `gorm:"not null;default:false"                         json:"emailed"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }

// NotificationPreference 邮件通知偏好，对应表 notification_preferences（与 users 1:1）
type NotificationPreference struct {
	UserID             string `gorm:"type:uuid;primaryKey"  json:"user_id"`
	AttendanceUpdate   bool   `gorm:"not null;default:true" json:"attendance_update"`
	LowAttendance      bool   `gorm:"not null;default:true" json:"low_attendance"`
	WeeklyReport       bool   `gorm:"not null;default:true" json:"weekly_report"`
	EnrollmentDecision bool   `gorm:"not null;default:true" json:"enrollment_decision"`
	LeaveDecision      bool   `gorm:"not null;default:true" json:"leave_decision"`
	BaseModel
}

// TableName 指定表名
func (NotificationPreference) TableName() string { return "notification_preferences" }

// DefaultPreference 未设置偏好时全部开启
func DefaultPreference(userID string) *NotificationPreference {
	return &NotificationPreference{
		UserID:             userID,
		AttendanceUpdate:   true,
		LowAttendance:      true,
		WeeklyReport:       true,
		EnrollmentDecision: true,
		LeaveDecision:      true,
	}
}

// Allows 偏好是否允许该类型的邮件
func (p *NotificationPreference) Allows(kind string) bool {
	switch kind {
	case NotifyAttendanceUpdate:
		return p.AttendanceUpdate
	case NotifyLowAttendance:
		return p.LowAttendance
	case NotifyWeeklyReport:
		return p.WeeklyReport
	case NotifyEnrollmentDecision:
		return p.EnrollmentDecision
	case NotifyLeaveDecision:
		return p.LeaveDecision
	}
	return true
}
