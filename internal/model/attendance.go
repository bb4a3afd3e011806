package model

import (
	"strings"
	"time"
)

// Status 考勤状态（库内小写存储）
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLeave   Status = "leave"
)

// ParseStatus 解析考勤状态，大小写不敏感，兼容 "On Leave"
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "present":
		return StatusPresent, true
	case "absent":
		return StatusAbsent, true
	case "leave", "on leave", "on_leave":
		return StatusLeave, true
	}
	return "", false
}

// Label 导出与邮件使用的展示文本
func (s Status) Label() string {
	switch s {
	case StatusPresent:
		return "Present"
	case StatusAbsent:
		return "Absent"
	case StatusLeave:
		return "Leave"
	}
	return string(s)
}

// Attendance 考勤记录，对应表 attendance
// (student_id, subject_code, attendance_date) 唯一，重复标记即更新
type Attendance struct {
	AttendanceID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	StudentID      string    `gorm:"type:uuid;not null"                             json:"student_id"`
	SubjectCode    string    `gorm:"type:varchar(20);not null"                      json:"subject_code"`
	ClassID        string    `gorm:"type:uuid;not null"                             json:"class_id"`
	AttendanceDate time.Time `gorm:"type:date;not null"                             json:"attendance_date"`
	Semester       int       `gorm:"type:smallint;not null"                         json:"semester"`
	AcademicYear   string    `gorm:"type:varchar(9);not null"                       json:"academic_year"`
	Status         Status    `gorm:"type:varchar(10);not null"                      json:"status"`
	MarkedBy       string    `gorm:"type:uuid;not null"                             json:"marked_by"`
	Remarks        string    `gorm:"type:text;not null;default:''"                  json:"remarks"`
	BaseModel
}

// TableName 指定表名
func (Attendance) TableName() string { return "attendance" }

// AttendanceRow 考勤查询视图：考勤记录 + 学生、科目、班级名称
type AttendanceRow struct {
	AttendanceID   string    `json:"attendance_id"`
	StudentID      string    `json:"student_id"`
	StudentName    string    `json:"student_name"`
	StudentEmail   string    `json:"student_email"`
	SubjectCode    string    `json:"subject_code"`
	SubjectName    string    `json:"subject_name"`
	ClassID        string    `json:"class_id"`
	ClassName      string    `json:"class_name"`
	DepartmentID   string    `json:"department_id"`
	AttendanceDate time.Time `json:"attendance_date"`
	Semester       int       `json:"semester"`
	AcademicYear   string    `json:"academic_year"`
	Status         Status    `json:"status"`
	MarkedBy       string    `json:"marked_by"`
	Remarks        string    `json:"remarks"`
}
