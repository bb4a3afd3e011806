package dto

// ── 任课 / 学籍模块 DTO ──

// CreateAssignmentRequest 分配任课
type CreateAssignmentRequest struct {
	TeacherID      string `json:"teacher_id"      binding:"required,uuid"`
	SubjectCode    string `json:"subject_code"    binding:"required,max=20"`
	ClassID        string `json:"class_id"        binding:"required,uuid"`
	AssignmentType string `json:"assignment_type" binding:"omitempty,oneof=teacher class_teacher"`
}

// AssignmentListRequest 任课列表查询
type AssignmentListRequest struct {
	TeacherID   string `form:"teacher_id"   binding:"omitempty,uuid"`
	ClassID     string `form:"class_id"     binding:"omitempty,uuid"`
	SubjectCode string `form:"subject_code" binding:"omitempty,max=20"`
}

// AssignmentResponse 任课信息
type AssignmentResponse struct {
	ID             string `json:"id"`
	TeacherID      string `json:"teacher_id"`
	TeacherName    string `json:"teacher_name,omitempty"`
	SubjectCode    string `json:"subject_code"`
	SubjectName    string `json:"subject_name,omitempty"`
	ClassID        string `json:"class_id"`
	ClassName      string `json:"class_name,omitempty"`
	AssignmentType string `json:"assignment_type"`
	Semester       int    `json:"semester"`
	AcademicYear   string `json:"academic_year"`
	IsActive       bool   `json:"is_active"`
}

// CreateEnrollmentRequest 学生注册到班级
type CreateEnrollmentRequest struct {
	StudentID        string `json:"student_id"        binding:"required,uuid"`
	ClassID          string `json:"class_id"          binding:"required,uuid"`
	EnrollmentNumber string `json:"enrollment_number" binding:"required,max=50"`
}

// UpdateEnrollmentStatusRequest 变更学籍状态
type UpdateEnrollmentStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active completed withdrawn"`
}

// EnrollmentResponse 学籍信息
type EnrollmentResponse struct {
	ID               string `json:"id"`
	StudentID        string `json:"student_id"`
	StudentName      string `json:"student_name,omitempty"`
	ClassID          string `json:"class_id"`
	ClassName        string `json:"class_name,omitempty"`
	EnrollmentNumber string `json:"enrollment_number"`
	Semester         int    `json:"semester"`
	AcademicYear     string `json:"academic_year"`
	Status           string `json:"status"`
	EnrolledAt       string `json:"enrolled_at"`
}
