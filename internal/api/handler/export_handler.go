package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-attendance/internal/service"
	"campus-attendance/pkg/response"
)

// sendFile 以附件形式输出导出文件
func sendFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Description", "File Transfer")
	response.Attachment(c, file.ContentType, file.Filename, file.Body.Bytes())
}

// handleExportError 导出失败；生成失败记录日志后返回 500
func handleExportError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrExportFormat):
		response.BadRequest(c, 21101, "不支持的导出格式，仅支持 csv / xlsx")
	case errors.Is(err, service.ErrExportGenerateFail):
		logger.Error("导出文件生成失败", zap.String("path", c.FullPath()), zap.Error(err))
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
