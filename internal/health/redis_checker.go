package health

import (
	"context"
	"fmt"
	"time"

	redisstorage "github.com/taoyao-code/soundboard-gateway/internal/storage/redis"
)

// RedisChecker 快照存储检查器；不可用时快照与 MQTT 状态镜像停止更新，记为 degraded
type RedisChecker struct {
	client *redisstorage.Client
}

// NewRedisChecker 创建Redis健康检查器
func NewRedisChecker(client *redisstorage.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Name 返回检查器名称
func (c *RedisChecker) Name() string {
	return "redis"
}

// Check ping 并附带连接池计数
func (c *RedisChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	if err := c.client.HealthCheck(ctx); err != nil {
		return finish(start, StatusDegraded, fmt.Sprintf("snapshot store unreachable: %v", err), nil)
	}
	st := c.client.Stats()
	return finish(start, StatusHealthy, "ok", map[string]any{
		"total_conns": st.TotalConns,
		"idle_conns":  st.IdleConns,
		"timeouts":    st.Timeouts,
	})
}
