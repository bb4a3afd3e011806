package dto

// ── 请假模块 DTO ──

// ApplyLeaveRequest 请假申请
type ApplyLeaveRequest struct {
	FromDate string `json:"from_date" binding:"required,datetime=2006-01-02"`
	ToDate   string `json:"to_date"   binding:"required,datetime=2006-01-02"`
	Reason   string `json:"reason"    binding:"required,min=2,max=500"`
}

// LeaveResponse 请假信息
type LeaveResponse struct {
	ID          string `json:"id"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	ClassID     string `json:"class_id"`
	FromDate    string `json:"from_date"`
	ToDate      string `json:"to_date"`
	Reason      string `json:"reason"`
	Status      string `json:"status"`
	ReviewerID  string `json:"reviewer_id,omitempty"`
	ReviewedAt  string `json:"reviewed_at,omitempty"`
	ReviewNote  string `json:"review_note,omitempty"`
	CreatedAt   string `json:"created_at"`
}
