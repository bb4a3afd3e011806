package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// EnrollmentRequestHandler 角色申请 HTTP 处理器
type EnrollmentRequestHandler struct {
	requestSvc service.EnrollmentRequestService
}

// NewEnrollmentRequestHandler 创建 EnrollmentRequestHandler
func NewEnrollmentRequestHandler(requestSvc service.EnrollmentRequestService) *EnrollmentRequestHandler {
	return &EnrollmentRequestHandler{requestSvc: requestSvc}
}

// Submit 提交角色申请
// POST /api/v1/enrollment-requests
func (h *EnrollmentRequestHandler) Submit(c *gin.Context) {
	var req dto.SubmitEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.requestSvc.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.Created(c, result)
}

// Mine GET /api/v1/enrollment-requests/me
func (h *EnrollmentRequestHandler) Mine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, err := h.requestSvc.Mine(c.Request.Context(), userID)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// ListPending 调用者可审批的待办
// GET /api/v1/enrollment-requests/pending
func (h *EnrollmentRequestHandler) ListPending(c *gin.Context) {
	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	list, err := h.requestSvc.ListPending(c.Request.Context(), actor)
	if err != nil {
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Approve POST /api/v1/enrollment-requests/:id/approve
func (h *EnrollmentRequestHandler) Approve(c *gin.Context) {
	h.decide(c, h.requestSvc.Approve)
}

// Reject POST /api/v1/enrollment-requests/:id/reject
func (h *EnrollmentRequestHandler) Reject(c *gin.Context) {
	h.decide(c, h.requestSvc.Reject)
}

type requestDecision func(ctx context.Context, id string, req *dto.ReviewRequest, actor service.Actor) (*dto.EnrollmentRequestResponse, error)

func (h *EnrollmentRequestHandler) decide(c *gin.Context, fn requestDecision) {
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
		h.handleRequestError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *EnrollmentRequestHandler) handleRequestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 19001, "角色申请不存在")
	case errors.Is(err, service.ErrRequestPendingExists):
		response.Conflict(c, 19002, "已有待审批的角色申请")
	case errors.Is(err, service.ErrRequestAlreadyDecided):
		response.Conflict(c, 19003, "该申请已审批，不能重复处理")
	case errors.Is(err, service.ErrInvalidRequestedRole):
		response.BadRequest(c, 19004, "不能申请该角色")
	case errors.Is(err, service.ErrStudentDetailsRequired):
		response.BadRequest(c, 19005, "申请学生角色需提供班级与学号")
	case errors.Is(err, service.ErrClassNotInDepartment):
		response.BadRequest(c, 19006, "班级不属于所选院系")
	case errors.Is(err, service.ErrReviewForbidden):
		response.Forbidden(c, 19007, "无权审批该申请")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 19008, "院系不存在")
	case errors.Is(err, service.ErrClassNotFound):
		response.NotFound(c, 19009, "班级不存在")
	case errors.Is(err, service.ErrEnrollmentExists):
		response.Conflict(c, 19010, "该学生已有在读学籍")
	default:
		response.InternalError(c)
	}
}
