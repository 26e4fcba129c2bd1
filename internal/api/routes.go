package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/api/middleware"
)

// RegisterBoardRoutes 注册板控制与审计查询路由
func RegisterBoardRoutes(
	r *gin.Engine,
	deps Deps,
	authCfg middleware.AuthConfig,
	rateCfg middleware.RateLimitConfig,
) {
	if r == nil || deps.Manager == nil {
		return
	}
	handler := NewBoardHandler(deps)
	logger := handler.logger

	api := r.Group("/api")
	api.Use(middleware.RequestTracing(), middleware.RateLimit(rateCfg, logger))
	if authCfg.Enabled {
		api.Use(middleware.APIKeyAuth(authCfg, logger))
		logger.Info("api authentication enabled", zap.Int("api_keys_count", len(authCfg.APIKeys)))
	} else {
		logger.Warn("api authentication disabled - only for development!")
	}

	api.GET("/boards", handler.ListBoards)

	board := api.Group("/boards/:name")
	{
		board.POST("/play", handler.Play)
		board.POST("/stop", handler.Stop)
		board.PUT("/volume", handler.SetVolume)
		board.POST("/volume/up", handler.VolumeUp)
		board.POST("/volume/down", handler.VolumeDown)
		board.GET("/status", handler.Status)
		board.GET("/snapshot", handler.Snapshot)
		board.GET("/commands", handler.ListCommands)
		board.GET("/stats", handler.CommandStats)
	}

	logger.Info("board routes registered", zap.Int("endpoints", 10))
}
