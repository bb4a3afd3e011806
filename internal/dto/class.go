package dto

// ── 班级 / 科目模块 DTO ──

// CreateClassRequest 创建班级
type CreateClassRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=50"`
	DepartmentID string `json:"department_id" binding:"required,uuid"`
	Semester     int    `json:"semester"      binding:"required,min=1,max=6"`
	AcademicYear string `json:"academic_year" binding:"required,academic_year"`
}

// UpdateClassRequest 更新班级
type UpdateClassRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=50"`
	Semester     *int    `json:"semester"      binding:"omitempty,min=1,max=6"`
	AcademicYear *string `json:"academic_year" binding:"omitempty,academic_year"`
	IsActive     *bool   `json:"is_active"`
}

// ClassListRequest 班级列表查询
type ClassListRequest struct {
	DepartmentID string `form:"department_id" binding:"omitempty,uuid"`
	AcademicYear string `form:"academic_year" binding:"omitempty,academic_year"`
	Semester     int    `form:"semester"      binding:"omitempty,min=1,max=6"`
}

// ClassResponse 班级信息
type ClassResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	DepartmentID   string `json:"department_id"`
	DepartmentName string `json:"department_name,omitempty"`
	Semester       int    `json:"semester"`
	AcademicYear   string `json:"academic_year"`
	IsActive       bool   `json:"is_active"`
}

// ClassStudentResponse 班级在籍学生
type ClassStudentResponse struct {
	StudentID        string `json:"student_id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	EnrollmentNumber string `json:"enrollment_number"`
}

// CreateSubjectRequest 创建科目
type CreateSubjectRequest struct {
	Code    string `json:"code"    binding:"required,min=2,max=20"`
	Name    string `json:"name"    binding:"required,min=2,max=100"`
	Credits int    `json:"credits" binding:"omitempty,min=0,max=20"`
}

// UpdateSubjectRequest 更新科目
type UpdateSubjectRequest struct {
	Name    *string `json:"name"    binding:"omitempty,min=2,max=100"`
	Credits *int    `json:"credits" binding:"omitempty,min=0,max=20"`
}

// SubjectResponse 科目信息
type SubjectResponse struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Credits int    `json:"credits"`
}
