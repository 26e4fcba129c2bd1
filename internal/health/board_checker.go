package health

import (
	"context"
	"time"

	"github.com/taoyao-code/soundboard-gateway/internal/session"
)

// BoardChecker 音频板在线检查器：全部离线为 unhealthy，部分离线为 degraded
type BoardChecker struct {
	mgr *session.Manager
	now func() time.Time
}

// NewBoardChecker 创建音频板检查器
func NewBoardChecker(mgr *session.Manager) *BoardChecker {
	return &BoardChecker{mgr: mgr, now: time.Now}
}

// Name 返回检查器名称
func (c *BoardChecker) Name() string {
	return "boards"
}

// Check 只读取会话记录，不触碰总线
func (c *BoardChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	now := c.now()

	names := c.mgr.Names()
	boards := make(map[string]any, len(names))
	online := 0
	for _, name := range names {
		b, _ := c.mgr.Get(name)
		up := c.mgr.IsOnline(name, now)
		if up {
			online++
		}
		entry := map[string]any{
			"online":  up,
			"started": b.Started(),
			"volume":  b.Volume(),
		}
		if ts, ok := c.mgr.LastSeen(name); ok {
			entry["last_seen"] = ts
		}
		boards[name] = entry
	}

	status := StatusHealthy
	message := "ok"
	switch {
	case len(names) == 0:
		status = StatusUnhealthy
		message = "no boards configured"
	case online == 0:
		status = StatusUnhealthy
		message = "no board online"
	case online < len(names):
		status = StatusDegraded
		message = "some boards offline"
	}

	return CheckResult{
		Status:  status,
		Message: message,
		Details: map[string]any{
			"total":  len(names),
			"online": online,
			"boards": boards,
		},
		Latency: time.Since(start),
	}
}
