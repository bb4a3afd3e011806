package dto

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	Role         string `form:"role"          binding:"omitempty,oneof=admin principal hod teacher class_teacher student pending"`
	Status       string `form:"status"        binding:"omitempty,oneof=active inactive"`
	Keyword      string `form:"keyword"       binding:"omitempty,max=50"`
}

// UpdateUserRequest 更新用户信息请求
type UpdateUserRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=2,max=100"`
	Email        *string `json:"email"         binding:"omitempty,email"`
	Phone        *string `json:"phone"         binding:"omitempty,max=20"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// AssignRoleRequest 分配角色请求
type AssignRoleRequest struct {
	Role         string  `json:"role"          binding:"required,oneof=admin principal hod teacher class_teacher student pending"`
	DepartmentID *string `json:"department_id" binding:"omitempty,uuid"`
}

// UpdateUserStatusRequest 启用/停用用户
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}

// ImportUserError 导入失败行
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportedAccount 导入成功的账号与初始密码
type ImportedAccount struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserResponse 批量导入结果
type ImportUserResponse struct {
	Total    int               `json:"total"`
	Created  int               `json:"created"`
	Failed   int               `json:"failed"`
	Errors   []ImportUserError `json:"errors,omitempty"`
	Accounts []ImportedAccount `json:"accounts,omitempty"`
}
