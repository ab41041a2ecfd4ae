package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrifarma/internal/api/middleware"
	"agrifarma/internal/service"
)

func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func AbortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func Unauthorized(c *gin.Context)           { Error(c, http.StatusUnauthorized, "unauthorized") }
func BadRequest(c *gin.Context, msg string) { Error(c, http.StatusBadRequest, msg) }
func Forbidden(c *gin.Context, msg string)  { Error(c, http.StatusForbidden, msg) }
func NotFound(c *gin.Context, msg string)   { Error(c, http.StatusNotFound, msg) }
func Conflict(c *gin.Context, msg string)   { Error(c, http.StatusConflict, msg) }
func Internal(c *gin.Context, msg string)   { Error(c, http.StatusInternalServerError, msg) }

// respondServiceError 把领域层错误翻译为 HTTP 响应。
// 校验与权限错误是可恢复的用户可见错误，消息原样返回；
// 其余错误只记录日志，不向外泄露细节。
func respondServiceError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		BadRequest(c, validationErr.Message)
		return
	}

	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		Forbidden(c, authErr.Message)
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		NotFound(c, "not found")
		return
	}

	middleware.LoggerFromContext(c).Error("request failed", slog.Any("error", err))
	Internal(c, "internal error")
}
