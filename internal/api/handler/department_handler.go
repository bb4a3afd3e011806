package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// DepartmentHandler 院系模块 HTTP 处理器
type DepartmentHandler struct {
	deptSvc service.DepartmentService
}

// NewDepartmentHandler 创建 DepartmentHandler
func NewDepartmentHandler(deptSvc service.DepartmentService) *DepartmentHandler {
	return &DepartmentHandler{deptSvc: deptSvc}
}

// ListDepartments 获取院系列表
// GET /api/v1/departments
func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	var req dto.DepartmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	depts, err := h.deptSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": depts})
}

// GetDepartment 获取院系详情
// GET /api/v1/departments/:id
func (h *DepartmentHandler) GetDepartment(c *gin.Context) {
	dept, err := h.deptSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, dept)
}

// CreateDepartment 创建院系
// POST /api/v1/departments
func (h *DepartmentHandler) CreateDepartment(c *gin.Context) {
	var req dto.CreateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.Created(c, dept)
}

// UpdateDepartment 更新院系
// PUT /api/v1/departments/:id
func (h *DepartmentHandler) UpdateDepartment(c *gin.Context) {
	var req dto.UpdateDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	dept, err := h.deptSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, dept)
}

// DeleteDepartment 删除院系
// DELETE /api/v1/departments/:id
func (h *DepartmentHandler) DeleteDepartment(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.deptSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, nil)
}

// ListSubjects 院系开设科目
// GET /api/v1/departments/:id/subjects?semester=3
func (h *DepartmentHandler) ListSubjects(c *gin.Context) {
	semester, _ := strconv.Atoi(c.Query("semester"))

	list, err := h.deptSvc.ListSubjects(c.Request.Context(), c.Param("id"), semester)
	if err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// AddSubject 院系某学期开设科目
// POST /api/v1/departments/:id/subjects
func (h *DepartmentHandler) AddSubject(c *gin.Context) {
	var req dto.AddDepartmentSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.deptSvc.AddSubject(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleDepartmentError(c, err)
		return
	}

	response.Created(c, nil)
}

// handleDepartmentError 统一处理院系模块业务错误
func (h *DepartmentHandler) handleDepartmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 13001, "院系不存在")
	case errors.Is(err, service.ErrDepartmentCodeExists):
		response.Conflict(c, 13002, "院系代码已存在")
	case errors.Is(err, service.ErrDepartmentHasMembers):
		response.BadRequest(c, 13003, "院系下存在成员或班级，无法删除")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 13004, "科目不存在")
	default:
		response.InternalError(c)
	}
}
