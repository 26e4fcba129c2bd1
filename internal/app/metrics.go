package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/taoyao-code/soundboard-gateway/internal/metrics"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
)

// NewMetrics 初始化注册表与应用指标
func NewMetrics() (*prometheus.Registry, *metrics.AppMetrics) {
	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	return reg, appm
}

// RunOnlineGauge 定期刷新在线板数量，直到 ctx 结束
func RunOnlineGauge(ctx context.Context, appm *metrics.AppMetrics, mgr *session.Manager, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		appm.OnlineGauge.Set(float64(mgr.OnlineCount(time.Now())))
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
