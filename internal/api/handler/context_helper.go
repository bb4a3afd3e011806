package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"campus-attendance/internal/model"
	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString("user_id")
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetActor 提取调用者身份（用户、角色、院系），供 Service 层收窄数据范围
func MustGetActor(c *gin.Context) (service.Actor, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Actor{}, false
	}
	role := c.GetString("role")
	if role == "" {
		response.Unauthorized(c, 10002, "未认证")
		return service.Actor{}, false
	}
	return service.Actor{
		UserID:       userID,
		Role:         model.Role(role),
		DepartmentID: c.GetString("department_id"),
	}, true
}

// tokenInfo 当前 Access Token 的 jti 与过期时间（登出时吊销）
func tokenInfo(c *gin.Context) (string, time.Time) {
	exp, _ := c.Get("token_exp")
	t, _ := exp.(time.Time)
	return c.GetString("jti"), t
}

// bindFailed 参数绑定失败；读取请求体时超限返回 413
func bindFailed(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.BadRequest(c, 10001, "参数校验失败")
}
