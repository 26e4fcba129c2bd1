package health

import (
	"context"
	"time"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"  // 仍可控制音频板，但附属组件（审计、快照）受损
	StatusUnhealthy Status = "unhealthy" // 无法控制任何音频板
)

// CheckResult 健康检查结果
type CheckResult struct {
	Status  Status         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Latency time.Duration  `json:"latency"`
}

// Checker 健康检查器接口
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckerFunc 用函数实现 Checker
type CheckerFunc struct {
	ID string
	Fn func(ctx context.Context) CheckResult
}

func (f CheckerFunc) Name() string { return f.ID }

func (f CheckerFunc) Check(ctx context.Context) CheckResult { return f.Fn(ctx) }

func finish(start time.Time, status Status, message string, details map[string]any) CheckResult {
	return CheckResult{
		Status:  status,
		Message: message,
		Details: details,
		Latency: time.Since(start),
	}
}
