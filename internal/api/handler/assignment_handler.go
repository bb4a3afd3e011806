package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// AssignmentHandler 任课模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// CreateAssignment 分配任课 / 班主任
// POST /api/v1/assignments
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req dto.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.assignmentSvc.Create(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.Created(c, result)
}

// ListAssignments GET /api/v1/assignments?teacher_id=&class_id=
func (h *AssignmentHandler) ListAssignments(c *gin.Context) {
	var req dto.AssignmentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.List(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// MyAssignments 当前教师的有效任课
// GET /api/v1/assignments/me
func (h *AssignmentHandler) MyAssignments(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.assignmentSvc.Mine(c.Request.Context(), userID)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// DeactivateAssignment DELETE /api/v1/assignments/:id
func (h *AssignmentHandler) DeactivateAssignment(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	if err := h.assignmentSvc.Deactivate(c.Request.Context(), c.Param("id"), actor); err != nil {
		h.handleAssignmentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentNotFound):
		response.NotFound(c, 16001, "任课记录不存在")
	case errors.Is(err, service.ErrAssignmentExists):
		response.Conflict(c, 16002, "该教师已担任此班级该科目")
	case errors.Is(err, service.ErrClassTeacherExists):
		response.Conflict(c, 16003, "该班级已有班主任")
	case errors.Is(err, service.ErrNotTeacher):
		response.BadRequest(c, 16004, "指定用户不是教师")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 16005, "教师不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 16006, "班级不存在")
	case errors.Is(err, service.ErrSubjectNotFound):
		response.NotFound(c, 16007, "科目不存在")
	case errors.Is(err, service.ErrNotClassTeacher):
		response.BadRequest(c, 16009, "班主任任课只能分配给班主任角色")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 16008, "只能管理本院系的任课")
	default:
		response.InternalError(c)
	}
}

// EnrollmentHandler 学籍模块 HTTP 处理器
type EnrollmentHandler struct {
	enrollmentSvc service.EnrollmentService
}

// NewEnrollmentHandler 创建 EnrollmentHandler
func NewEnrollmentHandler(enrollmentSvc service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentSvc: enrollmentSvc}
}

// CreateEnrollment 学生注册到班级，原学籍结束
// POST /api/v1/enrollments
func (h *EnrollmentHandler) CreateEnrollment(c *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.Created(c, result)
}

// History GET /api/v1/enrollments/students/:id
func (h *EnrollmentHandler) History(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.enrollmentSvc.History(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Current GET /api/v1/enrollments/students/:id/current
func (h *EnrollmentHandler) Current(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := h.enrollmentSvc.Current(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, result)
}

// UpdateStatus PUT /api/v1/enrollments/:id/status
func (h *EnrollmentHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateEnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.enrollmentSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleEnrollmentError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *EnrollmentHandler) handleEnrollmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEnrollmentNotFound):
		response.NotFound(c, 18001, "学籍记录不存在")
	case errors.Is(err, service.ErrEnrollmentExists):
		response.Conflict(c, 18002, "该学生已有在读学籍")
	case errors.Is(err, service.ErrNoActiveEnrollment):
		response.NotFound(c, 18003, "该学生当前没有在读学籍")
	case errors.Is(err, service.ErrNotStudent):
		response.BadRequest(c, 18004, "指定用户不是学生")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 18005, "学生不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 18006, "班级不存在")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 18007, "只能查看本人学籍")
	default:
		response.InternalError(c)
	}
}
