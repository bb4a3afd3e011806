package dto

// ── 角色申请模块 DTO ──

// SubmitEnrollmentRequest 提交角色申请
// requested_role=student 时必须提供 class_id 与 enrollment_number
type SubmitEnrollmentRequest struct {
	RequestedRole    string `json:"requested_role"    binding:"required,oneof=hod teacher class_teacher student"`
	DepartmentID     string `json:"department_id"     binding:"required,uuid"`
	ClassID          string `json:"class_id"          binding:"omitempty,uuid"`
	EnrollmentNumber string `json:"enrollment_number" binding:"omitempty,max=50"`
}

// ReviewRequest 审批备注（角色申请与请假共用）
type ReviewRequest struct {
	Note string `json:"note" binding:"omitempty,max=500"`
}

// EnrollmentRequestResponse 角色申请
type EnrollmentRequestResponse struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name,omitempty"`
	UserEmail        string `json:"user_email,omitempty"`
	RequestedRole    string `json:"requested_role"`
	DepartmentID     string `json:"department_id"`
	ClassID          string `json:"class_id,omitempty"`
	EnrollmentNumber string `json:"enrollment_number,omitempty"`
	Status           string `json:"status"`
	ReviewerID       string `json:"reviewer_id,omitempty"`
	ReviewedAt       string `json:"reviewed_at,omitempty"`
	ReviewNote       string `json:"review_note,omitempty"`
	CreatedAt        string `json:"created_at"`
}
