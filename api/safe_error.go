package api

import (
	"budget/config"
	"budget/logger"

	"github.com/gin-gonic/gin"
)

// SafeErrorMessage 生产环境下不向客户端暴露内部错误详情，避免信息泄露
func SafeErrorMessage(err error, fallback string) string {
	return config.SafeErrorMessage(err, fallback)
}

// serverError 记录日志并返回 500
func serverError(c *gin.Context, err error, fallback string) {
	logger.FromContext(c.Request.Context()).Error(fallback, "error", err)
	_ = c.Error(err)
	InternalError(c, SafeErrorMessage(err, fallback))
}
