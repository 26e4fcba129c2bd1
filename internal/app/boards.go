package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// NewTransport 按板配置构造总线传输（未包装限速/熔断）
func NewTransport(cfg cfgpkg.BoardConfig) (transport.Transport, error) {
	switch cfg.Transport {
	case cfgpkg.TransportSim, "":
		return transport.NewSimulator(), nil
	case cfgpkg.TransportI2C:
		return transport.NewI2CBus(cfg.Bus), nil
	case cfgpkg.TransportTCP:
		return transport.NewTCPBridge(cfg.Endpoint, cfg.Timeout, cfg.Timeout), nil
	case cfgpkg.TransportSerial:
		return transport.NewSerialBridge(cfg.Bus, cfg.Baud, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("board %s: unknown transport %q", cfg.Name, cfg.Transport)
	}
}

// GuardOptions 板配置中的限速与熔断参数
func GuardOptions(cfg cfgpkg.BoardConfig) transport.GuardOptions {
	return transport.GuardOptions{
		RatePerSec:       cfg.RatePerSec,
		Burst:            cfg.Burst,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
	}
}

// Boards 已构建的板及其（带保护的）传输，按板名索引
type Boards struct {
	Manager    *session.Manager
	Transports map[string]transport.Transport

	addrs  map[string]uint8
	logger *zap.Logger
}

// NewBoards 构造所有板并注册到会话管理器，然后逐个 Begin。
// 单块板 Begin 失败只记录日志，该板保持未启动状态（健康检查会体现），由 RunBeginRetry 重试。
func NewBoards(ctx context.Context, cfgs []cfgpkg.BoardConfig, mgr *session.Manager, hooks soundboard.Hooks, logger *zap.Logger) (*Boards, error) {
	bs := &Boards{
		Manager:    mgr,
		Transports: make(map[string]transport.Transport, len(cfgs)),
		addrs:      make(map[string]uint8, len(cfgs)),
		logger:     logger,
	}
	for _, bc := range cfgs {
		raw, err := NewTransport(bc)
		if err != nil {
			return nil, err
		}
		tr := transport.NewGuard(raw, GuardOptions(bc))
		b := soundboard.New(tr,
			soundboard.WithName(bc.Name),
			soundboard.WithLogger(logger),
			soundboard.WithHooks(hooks),
		)
		mgr.Register(b)
		bs.Transports[bc.Name] = tr
		bs.addrs[bc.Name] = bc.Address

		if err := b.Begin(ctx, bc.Address); err != nil {
			logger.Error("board begin failed",
				zap.String("board", bc.Name),
				zap.String("transport", bc.Transport),
				zap.Error(err))
			continue
		}
	}
	logger.Info("boards initialized", zap.Int("count", len(cfgs)))
	return bs, nil
}

// RetryBegin 对未启动的板重试一次 Begin，返回仍未启动的数量
func (bs *Boards) RetryBegin(ctx context.Context) int {
	pending := 0
	for _, name := range bs.Manager.Names() {
		b, ok := bs.Manager.Get(name)
		if !ok || b.Started() {
			continue
		}
		if err := b.Begin(ctx, bs.addrs[name]); err != nil {
			pending++
			bs.logger.Debug("board begin retry failed", zap.String("board", name), zap.Error(err))
			continue
		}
		bs.logger.Info("board begin recovered", zap.String("board", name))
	}
	return pending
}

// RunBeginRetry 周期性重试未启动的板，直到 ctx 结束
func (bs *Boards) RunBeginRetry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			bs.RetryBegin(ctx)
		}
	}
}
