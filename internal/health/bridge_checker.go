package health

import (
	"context"
	"time"

	"github.com/taoyao-code/soundboard-gateway/internal/tcpserver"
)

// BridgeChecker 总线桥服务健康检查器
type BridgeChecker struct {
	server *tcpserver.Server
}

// NewBridgeChecker 创建总线桥检查器
func NewBridgeChecker(server *tcpserver.Server) *BridgeChecker {
	return &BridgeChecker{server: server}
}

// Name 返回检查器名称
func (c *BridgeChecker) Name() string {
	return "bridge"
}

// Check 只读监听地址与连接计数
func (c *BridgeChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	addr := c.server.Addr()
	if addr == nil {
		return finish(start, StatusUnhealthy, "not listening", nil)
	}

	st := c.server.Limiter().Stats()
	details := map[string]any{
		"addr":               addr.String(),
		"active_connections": st.ActiveConnections,
		"max_connections":    st.MaxConnections,
		"rejected_total":     st.RejectedTotal,
	}
	if st.ActiveConnections >= st.MaxConnections {
		return finish(start, StatusDegraded, "client limit reached", details)
	}
	return finish(start, StatusHealthy, "ok", details)
}
