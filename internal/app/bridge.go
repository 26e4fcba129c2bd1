package app

import (
	"fmt"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/metrics"
	"github.com/taoyao-code/soundboard-gateway/internal/tcpserver"
)

// NewBridgeServer 以指定板的传输为后端创建 TCP 总线桥
func NewBridgeServer(cfg cfgpkg.BridgeConfig, boards *Boards, appm *metrics.AppMetrics, log *zap.Logger) (*tcpserver.Server, error) {
	backend, ok := boards.Transports[cfg.Board]
	if !ok {
		return nil, fmt.Errorf("bridge: unknown board %q", cfg.Board)
	}
	srv := tcpserver.New(cfg, backend, log)
	if appm != nil {
		srv.SetMetricsCallbacks(
			func() { appm.BridgeAccepted.Inc() },
			func(n int) { appm.BridgeBytesReceived.Add(float64(n)) },
		)
	}
	return srv, nil
}
