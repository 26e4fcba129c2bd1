package transport

import (
	"context"
	"time"
)

// GuardOptions 总线保护配置；零值表示不启用对应能力
type GuardOptions struct {
	RatePerSec       int
	Burst            int
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Guard 为底层传输加上限速与熔断
type Guard struct {
	inner   Transport
	limiter *RateLimiter
	breaker *CircuitBreaker
}

// NewGuard 包装传输；两项均未启用时仍返回可用的直通包装
func NewGuard(inner Transport, opts GuardOptions) *Guard {
	g := &Guard{inner: inner}
	if opts.RatePerSec > 0 {
		g.limiter = NewRateLimiter(opts.RatePerSec, opts.Burst)
	}
	if opts.BreakerThreshold > 0 {
		g.breaker = NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerCooldown)
	}
	return g
}

// Open 打开底层连接（Open 本身不计入熔断）
func (g *Guard) Open(ctx context.Context, addr uint8) (Conn, error) {
	c, err := g.inner.Open(ctx, addr)
	if err != nil {
		return nil, err
	}
	return &guardedConn{inner: c, g: g}, nil
}

// Breaker 熔断器（未启用时为 nil）
func (g *Guard) Breaker() *CircuitBreaker { return g.breaker }

// Limiter 限速器（未启用时为 nil）
func (g *Guard) Limiter() *RateLimiter { return g.limiter }

func (g *Guard) do(ctx context.Context, fn func() error) error {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if g.breaker != nil {
		return g.breaker.Call(fn)
	}
	return fn()
}

type guardedConn struct {
	inner Conn
	g     *Guard
}

func (c *guardedConn) Write(ctx context.Context, p []byte) error {
	return c.g.do(ctx, func() error { return c.inner.Write(ctx, p) })
}

func (c *guardedConn) Read(ctx context.Context, n int) ([]byte, error) {
	var out []byte
	err := c.g.do(ctx, func() error {
		var err error
		out, err = c.inner.Read(ctx, n)
		return err
	})
	return out, err
}

func (c *guardedConn) Close() error { return c.inner.Close() }
