package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DatabaseChecker 审计库检查器。数据库只承载审计日志，故障时音频板仍可控制，只记为 degraded。
type DatabaseChecker struct {
	pool *pgxpool.Pool
}

// NewDatabaseChecker 创建数据库健康检查器
func NewDatabaseChecker(pool *pgxpool.Pool) *DatabaseChecker {
	return &DatabaseChecker{pool: pool}
}

// Name 返回检查器名称
func (c *DatabaseChecker) Name() string {
	return "database"
}

// Check ping 并检查连接池占用
func (c *DatabaseChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.pool.Ping(ctx); err != nil {
		return finish(start, StatusDegraded, fmt.Sprintf("audit store unreachable: %v", err), nil)
	}

	st := c.pool.Stat()
	details := map[string]any{
		"acquired_conns": st.AcquiredConns(),
		"idle_conns":     st.IdleConns(),
		"max_conns":      st.MaxConns(),
	}
	if st.MaxConns() > 0 && st.AcquiredConns() >= st.MaxConns() {
		return finish(start, StatusDegraded, "audit pool exhausted", details)
	}
	return finish(start, StatusHealthy, "ok", details)
}
