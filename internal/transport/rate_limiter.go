package transport

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter 总线事务节拍器：每次写/读前取一个令牌，防止主机灌满设备的接收缓冲
type RateLimiter struct {
	limiter *rate.Limiter

	granted  atomic.Int64
	canceled atomic.Int64
	waited   atomic.Int64 // 累计阻塞纳秒
}

// NewRateLimiter perSec<=0 时取 50；burst<=0 时等于 perSec
func NewRateLimiter(perSec, burst int) *RateLimiter {
	if perSec <= 0 {
		perSec = 50
	}
	if burst <= 0 {
		burst = perSec
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(perSec), burst)}
}

// Wait 阻塞到拿到令牌；ctx 结束时返回其错误
func (l *RateLimiter) Wait(ctx context.Context) error {
	start := time.Now()
	err := l.limiter.Wait(ctx)
	l.waited.Add(int64(time.Since(start)))
	if err != nil {
		l.canceled.Add(1)
		return err
	}
	l.granted.Add(1)
	return nil
}

// RateLimiterStats 节拍器统计
type RateLimiterStats struct {
	PerSecond float64       `json:"per_second"`
	Burst     int           `json:"burst"`
	Granted   int64         `json:"granted"`
	Canceled  int64         `json:"canceled"`
	Waited    time.Duration `json:"waited"`
}

// Stats 当前统计
func (l *RateLimiter) Stats() RateLimiterStats {
	return RateLimiterStats{
		PerSecond: float64(l.limiter.Limit()),
		Burst:     l.limiter.Burst(),
		Granted:   l.granted.Load(),
		Canceled:  l.canceled.Load(),
		Waited:    time.Duration(l.waited.Load()),
	}
}
