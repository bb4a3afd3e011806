package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// LeaveHandler 请假模块 HTTP 处理器
type LeaveHandler struct {
	leaveSvc service.LeaveService
}

// NewLeaveHandler 创建 LeaveHandler
func NewLeaveHandler(leaveSvc service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leaveSvc: leaveSvc}
}

// Apply 学生提交请假
// POST /api/v1/leaves
func (h *LeaveHandler) Apply(c *gin.Context) {
	var req dto.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.leaveSvc.Apply(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.Created(c, result)
}

// Mine GET /api/v1/leaves/me
func (h *LeaveHandler) Mine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.leaveSvc.Mine(c.Request.Context(), userID)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListPending GET /api/v1/leaves/pending
func (h *LeaveHandler) ListPending(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.leaveSvc.ListPending(c.Request.Context(), actor)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Approve POST /api/v1/leaves/:id/approve
func (h *LeaveHandler) Approve(c *gin.Context) {
	h.decide(c, h.leaveSvc.Approve)
}

// Reject POST /api/v1/leaves/:id/reject
func (h *LeaveHandler) Reject(c *gin.Context) {
	h.decide(c, h.leaveSvc.Reject)
}

func (h *LeaveHandler) decide(c *gin.Context, fn func(context.Context, string, *dto.ReviewRequest, service.Actor) (*dto.LeaveResponse, error)) {
	var req dto.ReviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			bindFailed(c, err)
			return
		}
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	result, err := fn(c.Request.Context(), c.Param("id"), &req, actor)
	if err != nil {
		h.handleLeaveError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *LeaveHandler) handleLeaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrLeaveNotFound):
		response.NotFound(c, 23001, "请假申请不存在")
	case errors.Is(err, service.ErrLeaveDateRange):
		response.BadRequest(c, 23002, "请假结束日期不能早于开始日期")
	case errors.Is(err, service.ErrLeaveAlreadyDecided):
		response.Conflict(c, 23003, "该请假已审批，不能重复处理")
	case errors.Is(err, service.ErrLeaveReviewForbidden):
		response.Forbidden(c, 23004, "无权审批该请假")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 23005, "日期格式错误，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrNoActiveEnrollment):
		response.BadRequest(c, 23006, "当前没有在读学籍，不能请假")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, 10003, "无权限访问")
	default:
		response.InternalError(c)
	}
}
