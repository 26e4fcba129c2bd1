package tcpserver

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// ErrTooManyClients 桥连接数已满
var ErrTooManyClients = errors.New("bridge: too many clients")

// ConnectionLimiter 桥客户端连接数限制（基于信号量）
type ConnectionLimiter struct {
	sem           chan struct{}
	timeout       time.Duration
	maxConn       int
	activeCount   atomic.Int64
	rejectedCount atomic.Int64
}

// NewConnectionLimiter maxConn: 最大并发客户端数；timeout: 等待许可的最长时间（0 表示不等待）
func NewConnectionLimiter(maxConn int, timeout time.Duration) *ConnectionLimiter {
	if maxConn <= 0 {
		maxConn = 16
	}
	if timeout < 0 {
		timeout = 0
	}
	return &ConnectionLimiter{
		sem:     make(chan struct{}, maxConn),
		timeout: timeout,
		maxConn: maxConn,
	}
}

// Acquire 获取许可；超时或 ctx 结束返回 ErrTooManyClients
func (l *ConnectionLimiter) Acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		l.activeCount.Add(1)
		return nil
	default:
	}
	if l.timeout == 0 {
		l.rejectedCount.Add(1)
		return fmt.Errorf("%w: max=%d", ErrTooManyClients, l.maxConn)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	select {
	case l.sem <- struct{}{}:
		l.activeCount.Add(1)
		return nil
	case <-ctx.Done():
		l.rejectedCount.Add(1)
		return fmt.Errorf("%w: max=%d", ErrTooManyClients, l.maxConn)
	}
}

// Release 释放许可
func (l *ConnectionLimiter) Release() {
	select {
	case <-l.sem:
		l.activeCount.Add(-1)
	default:
	}
}

// Current 当前客户端数
func (l *ConnectionLimiter) Current() int {
	return int(l.activeCount.Load())
}

// Stats 获取统计信息
func (l *ConnectionLimiter) Stats() LimiterStats {
	return LimiterStats{
		MaxConnections:    l.maxConn,
		ActiveConnections: l.Current(),
		RejectedTotal:     l.rejectedCount.Load(),
	}
}

// LimiterStats 限制器统计信息
type LimiterStats struct {
	MaxConnections    int   `json:"max_connections"`
	ActiveConnections int   `json:"active_connections"`
	RejectedTotal     int64 `json:"rejected_total"`
}
