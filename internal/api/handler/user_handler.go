package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/dto"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// maxImportFileSize 导入 Excel 文件上限
const maxImportFileSize = 5 << 20

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表；系主任仅见本院系
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindFailed(c, err)
		return
	}

	actor, ok := MustGetActor(c)
	if !ok {
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req, actor)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户信息
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// AssignRole 分配角色
// PUT /api/v1/users/:id/role
func (h *UserHandler) AssignRole(c *gin.Context) {
	var req dto.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.userSvc.AssignRole(c.Request.Context(), c.Param("id"), &req, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateStatus 启用 / 停用
// PUT /api/v1/users/:id/status
func (h *UserHandler) UpdateStatus(c *gin.Context) {
	var req dto.UpdateUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, err)
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.UpdateStatus(c.Request.Context(), c.Param("id"), &req, callerID); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// DeleteUser 删除用户（软删除）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// ResetPassword 重置为临时密码
// POST /api/v1/users/:id/reset-password
func (h *UserHandler) ResetPassword(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.userSvc.ResetPassword(c.Request.Context(), c.Param("id"), callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// ImportUsers Excel 批量导入
// POST /api/v1/users/import  (multipart, 字段名 file)
func (h *UserHandler) ImportUsers(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "请上传 Excel 文件")
		return
	}
	if fh.Size > maxImportFileSize {
		response.BadRequest(c, 12011, "文件大小不能超过 5MB")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 12012, "无法读取上传文件")
		return
	}
	defer f.Close()

	rows, err := h.userSvc.ParseImportFile(f)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportNoData), errors.Is(err, service.ErrImportBadHeader), errors.Is(err, service.ErrImportTooManyRows):
			h.handleUserError(c, err)
		default:
			response.BadRequest(c, 12012, "无法解析Excel文件")
		}
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows, callerID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

// handleUserError 统一处理用户模块业务错误
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case errors.Is(err, service.ErrUserSelfRoleChange):
		response.BadRequest(c, 12002, "不能修改自己的角色")
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 12003, "不能删除自己")
	case errors.Is(err, service.ErrUserSelfDisable):
		response.BadRequest(c, 12004, "不能停用自己")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 12005, "无效的角色")
	case errors.Is(err, service.ErrRoleNeedsDept):
		response.BadRequest(c, 12006, "该角色必须指定院系")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 12007, "邮箱已被注册")
	case errors.Is(err, service.ErrDepartmentNotFound):
		response.NotFound(c, 12008, "院系不存在")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 12009, "Excel文件无数据行")
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 12010, "Excel表头缺少必要列（姓名/邮箱/院系）")
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 12013, err.Error())
	default:
		response.InternalError(c)
	}
}
