package model

import "time"

// 审批状态（角色申请与请假共用）
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// EnrollmentRequest 角色申请，对应表 enrollment_requests
// pending → approved | rejected，终态不可再变更
type EnrollmentRequest struct {
	RequestID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	UserID           string     `gorm:"type:uuid;not null"                             json:"user_id"`
	RequestedRole    Role       `gorm:"type:varchar(20);not null"                      json:"requested_role"`
	DepartmentID     string     `gorm:"type:uuid;not null"                             json:"department_id"`
	ClassID          *string    `gorm:"type:uuid"                                      json:"class_id,omitempty"`
	EnrollmentNumber *string    `gorm:"type:varchar(50)"                               json:"enrollment_number,omitempty"`
	Status           string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewerID       *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	ReviewedAt       *time.Time `                                                      json:"reviewed_at,omitempty"`
	ReviewNote       string     `gorm:"type:text;not null;default:''"                  json:"review_note"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (EnrollmentRequest) TableName() string { return "enrollment_requests" }

// IsTerminal 是否已审批
func (r *EnrollmentRequest) IsTerminal() bool {
	return r.Status == ReviewApproved || r.Status == ReviewRejected
}

// LeaveApplication 请假申请，对应表 leave_applications
type LeaveApplication struct {
	LeaveID    string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"leave_id"`
	StudentID  string     `gorm:"type:uuid;not null"                             json:"student_id"`
	ClassID    string     `gorm:"type:uuid;not null"                             json:"class_id"`
	FromDate   time.Time  `gorm:"type:date;not null"                             json:"from_date"`
	ToDate     time.Time  `gorm:"type:date;not null"                             json:"to_date"`
	Reason     string     `gorm:"type:text;not null"                             json:"reason"`
	Status     string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewerID *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	ReviewedAt *time.Time `                                                      json:"reviewed_at,omitempty"`
	ReviewNote string     `gorm:"type:text;not null;default:''"                  json:"review_note"`
	BaseModel

	Student *User `gorm:"foreignKey:StudentID;references:UserID" json:"student,omitempty"`
}

// TableName 指定表名
func (LeaveApplication) TableName() string { return "leave_applications" }

// Covers 请假区间是否覆盖指定日期（含首尾）
func (l *LeaveApplication) Covers(d time.Time) bool {
	day := d.Format(DateLayout)
	return day >= l.FromDate.Format(DateLayout) && day <= l.ToDate.Format(DateLayout)
}
