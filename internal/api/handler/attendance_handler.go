package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
	exportSvc     service.ExportService
	logger        *zap.Logger
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService, exportSvc service.ExportService, logger *zap.Logger) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc, exportSvc: exportSvc, logger: logger}
}

// Mark 批量标记考勤
// POST /api/v1/attendance/mark
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Mark(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Sheet 点名表
// GET /api/v1/attendance/sheet?class_id=&subject_code=&date=
func (h *AttendanceHandler) Sheet(c *gin.Context) {
	var req dto.AttendanceSheetRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.attendanceSvc.Sheet(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Update 修改单条考勤
// PUT /api/v1/attendance/:id
func (h *AttendanceHandler) Update(c *gin.Context) {
	var req dto.UpdateAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Update(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// Mine 学生本人的考勤
// GET /api/v1/attendance/me
func (h *AttendanceHandler) Mine(c *gin.Context) {
	var req dto.AttendanceViewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.attendanceSvc.Mine(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// View 范围内分页查看
// GET /api/v1/attendance/view
func (h *AttendanceHandler) View(c *gin.Context) {
	var req dto.AttendanceViewRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, total, err := h.attendanceSvc.View(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Filter 提交筛选条件，返回筛选令牌
// POST /api/v1/attendance/filter
func (h *AttendanceHandler) Filter(c *gin.Context) {
	var criteria dto.AttendanceFilter
	if err := c.ShouldBindJSON(&criteria); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Filter(c.Request.Context(), criteria, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// FilterResults 按令牌或直接参数取结果
// GET /api/v1/attendance/filter/results?token=
func (h *AttendanceHandler) FilterResults(c *gin.Context) {
	var req dto.FilterResultRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.FilterResults(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// FilterExport 导出筛选结果
// GET /api/v1/attendance/filter/export?token=&format=csv|xlsx
func (h *AttendanceHandler) FilterExport(c *gin.Context) {
	var req dto.FilterResultRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 21101, "不支持的导出格式，仅支持 csv / xlsx")
		return
	}
	format := req.Format
	if format == "" {
		format = service.FormatCSV
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	rows, _, err := h.attendanceSvc.FilterRows(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	file, err := h.exportSvc.Attendance(rows, format)
	if err != nil {
		handleExportError(c, h.logger, err)
		return
	}

	sendFile(c, file)
}

// handleAttendanceError 统一处理考勤与筛选业务错误
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttendanceNotFound):
		response.NotFound(c, 20001, "考勤记录不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 20002, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrFutureDate):
		response.BadRequest(c, 20003, "不能为未来日期标记考勤")
	case errors.Is(err, service.ErrInvalidStatus):
		response.BadRequest(c, 20004, "无效的考勤状态")
	case errors.Is(err, service.ErrEmptyEntries):
		response.BadRequest(c, 20005, "考勤名单不能为空")
	case errors.Is(err, service.ErrNotAssigned):
		response.Forbidden(c, 20006, "无权操作该班级该科目的考勤")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 20007, "班级不存在")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 20008, "科目不存在")
	case errors.Is(err, service.ErrRolePending):
		response.Forbidden(c, 20009, "角色尚未审批，暂无考勤访问权限")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限访问")
	case errors.Is(err, service.ErrFilterTokenInvalid):
		response.BadRequest(c, 21001, "筛选令牌无效")
	case errors.Is(err, service.ErrFilterTokenExpired):
		response.Error(c, http.StatusGone, 21002, "筛选令牌已过期，请重新提交筛选条件")
	case errors.Is(err, service.ErrFilterTokenNotOwned):
		response.Forbidden(c, 21003, "筛选令牌不属于当前用户")
	default:
		response.InternalError(c)
	}
}
