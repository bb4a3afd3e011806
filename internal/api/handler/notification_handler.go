package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.notificationSvc.List(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// MarkRead PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, nil)
}

// GetPreference GET /api/v1/notifications/preferences
func (h *NotificationHandler) GetPreference(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	pref, err := h.notificationSvc.GetPreference(c.Request.Context(), userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, pref)
}

// UpdatePreference PUT /api/v1/notifications/preferences
func (h *NotificationHandler) UpdatePreference(c *gin.Context) {
	var req dto.UpdatePreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	pref, err := h.notificationSvc.UpdatePreference(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, pref)
}

func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 24001, "通知不存在")
	default:
		response.InternalError(c)
	}
}

// TermHandler 学期 HTTP 处理器
type TermHandler struct {
	termSvc service.TermService
}

// NewTermHandler 创建 TermHandler
func NewTermHandler(termSvc service.TermService) *TermHandler {
	return &TermHandler{termSvc: termSvc}
}

// List GET /api/v1/terms
func (h *TermHandler) List(c *gin.Context) {
	list, err := h.termSvc.List(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Current GET /api/v1/terms/current
func (h *TermHandler) Current(c *gin.Context) {
	term, err := h.termSvc.Current(c.Request.Context())
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, term)
}

// Create POST /api/v1/terms
func (h *TermHandler) Create(c *gin.Context) {
	var req dto.CreateTermRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	term, err := h.termSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.Created(c, term)
}

// Activate 启用学期，原启用学期同时取消
// PUT /api/v1/terms/:id/activate
func (h *TermHandler) Activate(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	term, err := h.termSvc.Activate(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleTermError(c, err)
		return
	}

	response.OK(c, term)
}

func (h *TermHandler) handleTermError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTermNotFound):
		response.NotFound(c, 25001, "学期不存在")
	case errors.Is(err, service.ErrTermDateRange):
		response.BadRequest(c, 25002, "学期结束日期不能早于开始日期")
	case errors.Is(err, service.ErrNoCurrentTerm):
		response.NotFound(c, 25003, "当前没有启用的学期")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 25004, "日期格式错误，应为 YYYY-MM-DD")
	default:
		response.InternalError(c)
	}
}

// PolicyHandler 考勤策略 HTTP 处理器
type PolicyHandler struct {
	policySvc service.PolicyService
}

// NewPolicyHandler 创建 PolicyHandler
func NewPolicyHandler(policySvc service.PolicyService) *PolicyHandler {
	return &PolicyHandler{policySvc: policySvc}
}

// Get GET /api/v1/attendance-policy
func (h *PolicyHandler) Get(c *gin.Context) {
	policy, err := h.policySvc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, policy)
}

// Update PUT /api/v1/attendance-policy
func (h *PolicyHandler) Update(c *gin.Context) {
	var req dto.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 17001, "策略参数无效")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	policy, err := h.policySvc.Update(c.Request.Context(), &req, callerID)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, policy)
}
