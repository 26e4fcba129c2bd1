package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Purger 按时间清理审计记录（pg.Repository 实现）
type Purger interface {
	PurgeBefore(ctx context.Context, t time.Time) (int64, error)
}

// RetentionCleaner 审计日志清理器
// 定期删除超过保留时长的指令/状态记录
type RetentionCleaner struct {
	repo          Purger
	retention     time.Duration
	logger        *zap.Logger
	checkInterval time.Duration

	statsCleaned atomic.Int64

	mu      sync.Mutex
	lastRun time.Time
	lastErr error
}

// NewRetentionCleaner 创建审计日志清理器
func NewRetentionCleaner(repo Purger, retention time.Duration, logger *zap.Logger) *RetentionCleaner {
	return &RetentionCleaner{
		repo:          repo,
		retention:     retention,
		logger:        logger,
		checkInterval: 1 * time.Hour,
	}
}

// Start 启动清理循环（阻塞），启动时先清理一次
func (c *RetentionCleaner) Start(ctx context.Context) {
	c.logger.Info("audit retention cleaner started",
		zap.Duration("retention", c.retention),
		zap.Duration("check_interval", c.checkInterval))

	ticker := time.NewTicker(c.checkInterval)
	defer ticker.Stop()

	c.clean(ctx)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("audit retention cleaner stopped",
				zap.Int64("total_cleaned", c.statsCleaned.Load()))
			return
		case <-ticker.C:
			c.clean(ctx)
		}
	}
}

func (c *RetentionCleaner) clean(ctx context.Context) {
	cutoff := time.Now().Add(-c.retention)
	n, err := c.repo.PurgeBefore(ctx, cutoff)
	c.mu.Lock()
	c.lastRun, c.lastErr = time.Now(), err
	c.mu.Unlock()
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Error("purge audit log failed", zap.Error(err))
		}
		return
	}
	if n > 0 {
		total := c.statsCleaned.Add(n)
		c.logger.Info("purged audit log",
			zap.Int64("cleaned", n),
			zap.Time("cutoff", cutoff),
			zap.Int64("total_cleaned", total))
	}
}

// Stats 获取统计信息
func (c *RetentionCleaner) Stats() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := map[string]any{
		"total_cleaned": c.statsCleaned.Load(),
		"retention":     c.retention.String(),
	}
	if !c.lastRun.IsZero() {
		st["last_run"] = c.lastRun
	}
	if c.lastErr != nil {
		st["last_error"] = c.lastErr.Error()
	}
	return st
}

// LastError 最近一次清理的错误，成功或尚未运行时为 nil
func (c *RetentionCleaner) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
