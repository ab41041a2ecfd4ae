package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrifarma/internal/api/middleware"
	"agrifarma/internal/metrics"
)

// NewRouter 构建 Gin 路由引擎：关联 ID、结构化日志、指标与健康检查。
func NewRouter(logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		gin.Recovery(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
