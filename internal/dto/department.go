package dto

// ── 院系模块 DTO ──

// CreateDepartmentRequest 创建院系请求
type CreateDepartmentRequest struct {
	Code        string `json:"code"        binding:"required,min=2,max=20"`
	Name        string `json:"name"        binding:"required,min=2,max=100"`
	Description string `json:"description" binding:"omitempty,max=500"`
}

// UpdateDepartmentRequest 更新院系请求
type UpdateDepartmentRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=100"`
	Description *string `json:"description" binding:"omitempty,max=500"`
	IsActive    *bool   `json:"is_active"`
}

// DepartmentListRequest 院系列表查询参数
type DepartmentListRequest struct {
	IncludeInactive bool `form:"include_inactive"`
}

// DepartmentDetailResponse 院系详细信息响应
type DepartmentDetailResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	MemberCount int64  `json:"member_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// AddDepartmentSubjectRequest 院系开设科目
type AddDepartmentSubjectRequest struct {
	SubjectCode string `json:"subject_code" binding:"required,max=20"`
	Semester    int    `json:"semester"     binding:"required,min=1,max=6"`
}

// DepartmentSubjectResponse 院系科目
type DepartmentSubjectResponse struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Credits     int    `json:"credits"`
	Semester    int    `json:"semester"`
}
