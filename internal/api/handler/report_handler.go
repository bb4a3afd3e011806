package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// ReportHandler 考勤报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
	exportSvc service.ExportService
	logger    *zap.Logger
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, exportSvc service.ExportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc, exportSvc: exportSvc, logger: logger}
}

// scope 绑定报表范围参数与调用者
func (h *ReportHandler) scope(c *gin.Context) (*dto.ReportScopeRequest, service.Actor, bool) {
	var req dto.ReportScopeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return nil, service.Actor{}, false
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return nil, service.Actor{}, false
	}
	return &req, actor, true
}

// Student 学生各科汇总
// GET /api/v1/reports/attendance/student/:id
func (h *ReportHandler) Student(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Student(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// StudentPDF 学生报表 PDF
// GET /api/v1/reports/attendance/student/:id/pdf
func (h *ReportHandler) StudentPDF(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Student(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	file, err := h.exportSvc.StudentReportPDF(report)
	if err != nil {
		handleExportError(c, h.logger, err)
		return
	}

	sendFile(c, file)
}

// Class 班级报表
// GET /api/v1/reports/attendance/class/:id
// GET /api/v1/reports/attendance/class/:id/subject/:code
func (h *ReportHandler) Class(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Class(c.Request.Context(), c.Param("id"), c.Param("code"), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// ClassXLSX 班级报表 Excel
// GET /api/v1/reports/attendance/class/:id/xlsx?subject_code=
func (h *ReportHandler) ClassXLSX(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Class(c.Request.Context(), c.Param("id"), c.Query("subject_code"), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	file, err := h.exportSvc.ClassReport(report)
	if err != nil {
		handleExportError(c, h.logger, err)
		return
	}

	sendFile(c, file)
}

// Department GET /api/v1/reports/attendance/department/:id
func (h *ReportHandler) Department(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Department(c.Request.Context(), c.Param("id"), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Institution GET /api/v1/reports/attendance/institution
func (h *ReportHandler) Institution(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	report, err := h.reportSvc.Institution(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// MonthlyTrend GET /api/v1/reports/attendance/trend/monthly
func (h *ReportHandler) MonthlyTrend(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	points, err := h.reportSvc.MonthlyTrend(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": points})
}

// SemesterTrend GET /api/v1/reports/attendance/trend/semester
func (h *ReportHandler) SemesterTrend(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	points, err := h.reportSvc.SemesterTrend(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": points})
}

// TeachersMarked GET /api/v1/reports/attendance/teachers/marked
func (h *ReportHandler) TeachersMarked(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.TeachersMarked(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// MyWeekly 当前教师近 7 天汇总
// GET /api/v1/reports/attendance/teachers/me/weekly
func (h *ReportHandler) MyWeekly(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.TeacherWeekly(c.Request.Context(), userID)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *ReportHandler) lowRequest(c *gin.Context) (*dto.LowAttendanceRequest, service.Actor, bool) {
	var req dto.LowAttendanceRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return nil, service.Actor{}, false
	}
	actor, ok := MustGetActor(c)
	if !ok {
		return nil, service.Actor{}, false
	}
	return &req, actor, true
}

// Low 低于阈值的学生-科目
// GET /api/v1/reports/attendance/low?threshold=75
func (h *ReportHandler) Low(c *gin.Context) {
	req, actor, ok := h.lowRequest(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.Low(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// NotifyLow 向低出勤学生发送提醒
// POST /api/v1/reports/attendance/low/notify
func (h *ReportHandler) NotifyLow(c *gin.Context) {
	req, actor, ok := h.lowRequest(c)
	if !ok {
		return
	}

	result, err := h.reportSvc.NotifyLow(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, result)
}

// Top 出勤率最高的学生-科目
// GET /api/v1/reports/attendance/top?limit=10
func (h *ReportHandler) Top(c *gin.Context) {
	req, actor, ok := h.lowRequest(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.Top(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CompareClasses GET /api/v1/reports/attendance/compare/classes
func (h *ReportHandler) CompareClasses(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.CompareClasses(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CompareSubjects GET /api/v1/reports/attendance/compare/subjects
func (h *ReportHandler) CompareSubjects(c *gin.Context) {
	req, actor, ok := h.scope(c)
	if !ok {
		return
	}

	list, err := h.reportSvc.CompareSubjects(c.Request.Context(), req, actor)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportStudentNotFound):
		response.NotFound(c, 22001, "学生不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 22002, "班级不存在")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 22003, "科目不存在")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 22004, "院系不存在")
	case errors.Is(err, service.ErrRolePending):
		response.Forbidden(c, 22005, "角色尚未审批，暂无报表访问权限")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}
