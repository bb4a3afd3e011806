package dto

// ── 通知 / 学期 / 策略模块 DTO ──

// NotificationListRequest 通知列表
type NotificationListRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// NotificationResponse 站内通知
type NotificationResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	IsRead    bool   `json:"is_read"`
	Emailed   bool   `json:"emailed"`
	CreatedAt string `json:"created_at"`
}

// UpdatePreferenceRequest 更新邮件偏好
type UpdatePreferenceRequest struct {
	AttendanceUpdate   *bool `json:"attendance_update"`
	LowAttendance      *bool `json:"low_attendance"`
	WeeklyReport       *bool `json:"weekly_report"`
	EnrollmentDecision *bool `json:"enrollment_decision"`
	LeaveDecision      *bool `json:"leave_decision"`
}

// PreferenceResponse 邮件偏好
type PreferenceResponse struct {
	AttendanceUpdate   bool `json:"attendance_update"`
	LowAttendance      bool `json:"low_attendance"`
	WeeklyReport       bool `json:"weekly_report"`
	EnrollmentDecision bool `json:"enrollment_decision"`
	LeaveDecision      bool `json:"leave_decision"`
}

// CreateTermRequest 创建学期
type CreateTermRequest struct {
	AcademicYear string `json:"academic_year" binding:"required,academic_year"`
	Semester     int    `json:"semester"      binding:"required,min=1,max=6"`
	StartDate    string `json:"start_date"    binding:"required,datetime=2006-01-02"`
	EndDate      string `json:"end_date"      binding:"required,datetime=2006-01-02"`
}

// TermResponse 学期
type TermResponse struct {
	ID           string `json:"id"`
	AcademicYear string `json:"academic_year"`
	Semester     int    `json:"semester"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsActive     bool   `json:"is_active"`
}

// UpdatePolicyRequest 更新考勤策略
type UpdatePolicyRequest struct {
	LowThreshold       *float64 `json:"low_threshold"         binding:"omitempty,min=0,max=100"`
	LeaveCountsInTotal *bool    `json:"leave_counts_in_total"`
	NotifyOnMark       *bool    `json:"notify_on_mark"`
}

// PolicyResponse 考勤策略
type PolicyResponse struct {
	LowThreshold       float64 `json:"low_threshold"`
	LeaveCountsInTotal bool    `json:"leave_counts_in_total"`
	NotifyOnMark       bool    `json:"notify_on_mark"`
	UpdatedAt          string  `json:"updated_at"`
}
