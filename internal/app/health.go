package app

import (
	"context"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taoyao-code/soundboard-gateway/internal/health"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/tcpserver"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// NewHealthAggregator 创建健康检查聚合器，初始只包含板在线检查
func NewHealthAggregator(mgr *session.Manager) *health.Aggregator {
	return health.NewAggregator(health.NewBoardChecker(mgr))
}

// RegisterHealthRoutes 注册健康检查HTTP路由
func RegisterHealthRoutes(r *gin.Engine, aggregator *health.Aggregator, readiness *health.Readiness) {
	health.RegisterHTTPRoutes(r, aggregator, readiness)
}

// AddDatabaseChecker 添加数据库检查器到聚合器
func AddDatabaseChecker(aggregator *health.Aggregator, pool *pgxpool.Pool) {
	if pool != nil {
		aggregator.AddChecker(health.NewDatabaseChecker(pool))
	}
}

// AddBridgeChecker 添加总线桥检查器到聚合器
func AddBridgeChecker(aggregator *health.Aggregator, srv *tcpserver.Server) {
	aggregator.AddChecker(health.NewBridgeChecker(srv))
}

// AddRetentionChecker 审计清理最近一次失败时记为 degraded
func AddRetentionChecker(aggregator *health.Aggregator, cleaner *RetentionCleaner) {
	aggregator.AddChecker(health.CheckerFunc{
		ID: "retention",
		Fn: func(ctx context.Context) health.CheckResult {
			st := health.StatusHealthy
			msg := "ok"
			if err := cleaner.LastError(); err != nil {
				st, msg = health.StatusDegraded, "last purge failed"
			}
			return health.CheckResult{Status: st, Message: msg, Details: cleaner.Stats()}
		},
	})
}

// AddBusGuardChecker 汇报每块板的熔断与节拍统计；任一熔断打开记为 degraded
func AddBusGuardChecker(aggregator *health.Aggregator, boards *Boards) {
	aggregator.AddChecker(health.CheckerFunc{
		ID: "bus",
		Fn: func(ctx context.Context) health.CheckResult {
			names := make([]string, 0, len(boards.Transports))
			for name := range boards.Transports {
				names = append(names, name)
			}
			sort.Strings(names)

			details := make(map[string]any, len(names))
			var open []string
			for _, name := range names {
				g, ok := boards.Transports[name].(*transport.Guard)
				if !ok {
					continue
				}
				entry := map[string]any{}
				if br := g.Breaker(); br != nil {
					entry["breaker"] = br.Stats()
					if br.State() == transport.BreakerOpen {
						open = append(open, name)
					}
				}
				if l := g.Limiter(); l != nil {
					entry["limiter"] = l.Stats()
				}
				details[name] = entry
			}

			if len(open) > 0 {
				return health.CheckResult{
					Status:  health.StatusDegraded,
					Message: "breaker open: " + strings.Join(open, ","),
					Details: details,
				}
			}
			return health.CheckResult{Status: health.StatusHealthy, Message: "ok", Details: details}
		},
	})
}
