package dto

// ── 考勤模块 DTO ──

// MarkEntry 单个学生的标记
type MarkEntry struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Status    string `json:"status"     binding:"required,attendance_status"`
	Remarks   string `json:"remarks"    binding:"omitempty,max=500"`
}

// MarkAttendanceRequest 批量标记考勤
// semester / academic_year 缺省时取班级所属学期
type MarkAttendanceRequest struct {
	ClassID      string      `json:"class_id"      binding:"required,uuid"`
	SubjectCode  string      `json:"subject_code"  binding:"required,max=20"`
	Date         string      `json:"date"          binding:"required,datetime=2006-01-02"`
	Semester     int         `json:"semester"      binding:"omitempty,min=1,max=6"`
	AcademicYear string      `json:"academic_year" binding:"omitempty,academic_year"`
	Entries      []MarkEntry `json:"entries"       binding:"required,min=1,dive"`
}

// MarkAttendanceResponse 批量标记结果
type MarkAttendanceResponse struct {
	Written int      `json:"written"`
	Skipped []string `json:"skipped,omitempty"` // 未在该班级在籍的学生
	Leave   []string `json:"leave,omitempty"`   // 因已批准请假改记为请假的学生
}

// UpdateAttendanceRequest 修改单条考勤
type UpdateAttendanceRequest struct {
	Status  *string `json:"status"  binding:"omitempty,attendance_status"`
	Remarks *string `json:"remarks" binding:"omitempty,max=500"`
}

// AttendanceSheetRequest 点名表查询
type AttendanceSheetRequest struct {
	ClassID     string `form:"class_id"     binding:"required,uuid"`
	SubjectCode string `form:"subject_code" binding:"required,max=20"`
	Date        string `form:"date"         binding:"required,datetime=2006-01-02"`
}

// AttendanceSheetEntry 点名表行：在籍学生 + 当日已标记状态
type AttendanceSheetEntry struct {
	StudentID        string `json:"student_id"`
	Name             string `json:"name"`
	EnrollmentNumber string `json:"enrollment_number"`
	AttendanceID     string `json:"attendance_id,omitempty"`
	Status           string `json:"status,omitempty"`
	Remarks          string `json:"remarks,omitempty"`
	OnLeave          bool   `json:"on_leave"`
}

// AttendanceRecordResponse 考勤记录
type AttendanceRecordResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	SubjectCode  string `json:"subject_code"`
	SubjectName  string `json:"subject_name"`
	ClassID      string `json:"class_id"`
	ClassName    string `json:"class_name"`
	Semester     int    `json:"semester"`
	AcademicYear string `json:"academic_year"`
	Status       string `json:"status"`
	Remarks      string `json:"remarks,omitempty"`
	MarkedBy     string `json:"marked_by"`
}

// AttendanceFilter 考勤筛选条件
// 全部为原始字符串：缺省或无法解析的值不产生任何条件
type AttendanceFilter struct {
	StudentID      string `form:"student_id"      json:"student_id"`
	SubjectCode    string `form:"subject_code"    json:"subject_code"`
	ClassID        string `form:"class_id"        json:"class_id"`
	Semester       string `form:"semester"        json:"semester"`
	AcademicYear   string `form:"academic_year"   json:"academic_year"`
	FromDate       string `form:"from_date"       json:"from_date"`
	ToDate         string `form:"to_date"         json:"to_date"`
	Status         string `form:"status"          json:"status"`
	Threshold      string `form:"threshold"       json:"threshold"`
	ComparisonType string `form:"comparison_type" json:"comparison_type"`
}

// ToMap 转为筛选令牌载荷，仅保留非空字段
func (f AttendanceFilter) ToMap() map[string]string {
	m := make(map[string]string)
	put := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	put("student_id", f.StudentID)
	put("subject_code", f.SubjectCode)
	put("class_id", f.ClassID)
	put("semester", f.Semester)
	put("academic_year", f.AcademicYear)
	put("from_date", f.FromDate)
	put("to_date", f.ToDate)
	put("status", f.Status)
	put("threshold", f.Threshold)
	put("comparison_type", f.ComparisonType)
	return m
}

// AttendanceFilterFromMap 从筛选令牌载荷还原
func AttendanceFilterFromMap(m map[string]string) AttendanceFilter {
	return AttendanceFilter{
		StudentID:      m["student_id"],
		SubjectCode:    m["subject_code"],
		ClassID:        m["class_id"],
		Semester:       m["semester"],
		AcademicYear:   m["academic_year"],
		FromDate:       m["from_date"],
		ToDate:         m["to_date"],
		Status:         m["status"],
		Threshold:      m["threshold"],
		ComparisonType: m["comparison_type"],
	}
}

// IsZero 未指定任何条件
func (f AttendanceFilter) IsZero() bool {
	return len(f.ToMap()) == 0
}

// AttendanceViewRequest 分页查看考勤
type AttendanceViewRequest struct {
	AttendanceFilter
	PaginationRequest
}

// FilterTokenResponse 第一步：提交筛选条件
type FilterTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Total     int    `json:"total"`
}

// FilterResultRequest 第二步：按令牌或直接参数取结果
type FilterResultRequest struct {
	AttendanceFilter
	Token  string `form:"token"`
	Format string `form:"format" binding:"omitempty,oneof=csv xlsx"`
}

// FilterResultResponse 筛选结果
type FilterResultResponse struct {
	Criteria AttendanceFilter           `json:"criteria"`
	Total    int                        `json:"total"`
	Summary  AttendanceSummary          `json:"summary"`
	Records  []AttendanceRecordResponse `json:"records"`
}
