package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"careercraft/internal/api/middleware"
	"careercraft/internal/config"
	"careercraft/internal/metrics"
)

// NewRouter 构建 Gin 引擎并挂载通用中间件、健康检查与受保护的 /metrics。
func NewRouter(cfg *config.Config, logger *slog.Logger) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	router := gin.New()
	router.MaxMultipartMemory = cfg.API.MaxUploadBytes
	router.Use(
		gin.Recovery(),
		middleware.CorrelationIDMiddleware(),
		middleware.SlogLoggerMiddleware(logger),
		metrics.GinMiddleware(),
		cors.New(cors.Config{
			AllowOrigins:     cfg.API.AllowedOrigins(),
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"},
			ExposeHeaders:    []string{"X-Correlation-ID"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})
	router.GET("/metrics", middleware.InternalSecretMiddleware(cfg.Security.InternalSecret), gin.WrapH(promhttp.Handler()))

	return router
}
