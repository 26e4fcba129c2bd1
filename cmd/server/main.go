// @title           Soundboard Gateway API
// @version         1.0
// @description     I2C 音频板控制网关：播放、停止、音量调节与状态查询
// @BasePath        /
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package main

import (
	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/app/bootstrap"
	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/logging"
)

func main() {
	// 1) 加载配置
	cfg, err := cfgpkg.Load("")
	if err != nil {
		panic(err)
	}

	// 2) 初始化日志
	logger, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	// 3) 启动并阻塞到收到退出信号
	if err := bootstrap.Run(cfg, zap.L()); err != nil {
		zap.L().Fatal("gateway exited with error", zap.Error(err))
	}
}
