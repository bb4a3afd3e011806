package model

import "time"

// AcademicTerm 学期，对应表 academic_terms
// 至多一条 is_active 记录，作为标记考勤时学年/学期的默认值
type AcademicTerm struct {
	TermID       string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"term_id"`
	AcademicYear string    `gorm:"type:varchar(9);not null"                       json:"academic_year"`
	Semester     int       `gorm:"type:smallint;not null"                         json:"semester"`
	StartDate    time.Time `gorm:"type:date;not null"                             json:"start_date"`
	EndDate      time.Time `gorm:"type:date;not null"                             json:"end_date"`
	IsActive     bool      `gorm:"not null;default:false"                         json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (AcademicTerm) TableName() string { return "academic_terms" }

// AttendancePolicy 考勤策略，对应表 attendance_policy（单行强类型）
type AttendancePolicy struct {
	Singleton          bool    `gorm:"primaryKey;default:true"            json:"-"`
	LowThreshold       float64 `gorm:"type:numeric(5,2);not null"          json:"low_threshold"`
	LeaveCountsInTotal bool    `gorm:"not null;default:true"               json:"leave_counts_in_total"`
	NotifyOnMark       bool    `gorm:"not null;default:true"               json:"notify_on_mark"`
	BaseModel
}

// TableName 指定表名
func (AttendancePolicy) TableName() string { return "attendance_policy" }
