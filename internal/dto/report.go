package dto

// ── 报表模块 DTO ──

// ReportScopeRequest 报表范围
// month 格式 YYYY-MM；与 semester 等一样，无法解析时忽略
type ReportScopeRequest struct {
	Semester     string `form:"semester"`
	AcademicYear string `form:"academic_year"`
	Month        string `form:"month"`
	DepartmentID string `form:"department_id"`
}

// AttendanceSummary 计数与出勤率
type AttendanceSummary struct {
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Leave      int     `json:"leave"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// SubjectSummary 单科汇总
type SubjectSummary struct {
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	AttendanceSummary
}

// StudentReportResponse 学生各科出勤汇总
type StudentReportResponse struct {
	StudentID   string            `json:"student_id"`
	StudentName string            `json:"student_name"`
	Subjects    []SubjectSummary  `json:"subjects"`
	Overall     AttendanceSummary `json:"overall"`
}

// StudentSummary 班级报表中的学生行
type StudentSummary struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	AttendanceSummary
}

// ClassReportResponse 班级（或班级某科）出勤报表
type ClassReportResponse struct {
	ClassID     string            `json:"class_id"`
	ClassName   string            `json:"class_name"`
	SubjectCode string            `json:"subject_code,omitempty"`
	Students    []StudentSummary  `json:"students"`
	Overall     AttendanceSummary `json:"overall"`
}

// GroupSummary 通用分组汇总（院系下各班级、全校各院系、对比报表）
type GroupSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	AttendanceSummary
}

// AggregateReportResponse 院系 / 全校报表
type AggregateReportResponse struct {
	Scope   string            `json:"scope"` // department | institution
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name,omitempty"`
	Groups  []GroupSummary    `json:"groups"`
	Overall AttendanceSummary `json:"overall"`
}

// TrendPoint 趋势数据点
type TrendPoint struct {
	Period string `json:"period"` // YYYY-MM 或 academic_year/semester
	AttendanceSummary
}

// TeacherMarkedSummary 教师标记汇总
type TeacherMarkedSummary struct {
	TeacherID   string `json:"teacher_id"`
	TeacherName string `json:"teacher_name"`
	AttendanceSummary
}

// WeeklySummary 教师近 7 天按班级、科目汇总
type WeeklySummary struct {
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	Sessions    int    `json:"sessions"` // 不同上课日期数
	AttendanceSummary
}

// LowAttendanceRequest 低出勤查询
type LowAttendanceRequest struct {
	ReportScopeRequest
	ClassID   string `form:"class_id"`
	Threshold string `form:"threshold"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// LowAttendanceEntry 学生-科目出勤行（低出勤 / 优秀）
type LowAttendanceEntry struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	SubjectCode string `json:"subject_code"`
	SubjectName string `json:"subject_name"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name"`
	AttendanceSummary
}

// NotifyResultResponse 批量提醒结果
type NotifyResultResponse struct {
	Students int `json:"students"`
	Queued   int `json:"queued"`
}
