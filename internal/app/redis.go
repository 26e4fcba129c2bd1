package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/health"
	redisstorage "github.com/taoyao-code/soundboard-gateway/internal/storage/redis"
)

// NewRedisClient 快照存储客户端；未启用时返回 nil, nil，调用方回退到内存存储
func NewRedisClient(cfg cfgpkg.RedisConfig, logger *zap.Logger) (*redisstorage.Client, error) {
	if !cfg.Enabled {
		logger.Info("redis disabled, board snapshots kept in memory")
		return nil, nil
	}
	client, err := redisstorage.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	opts := client.Options()
	logger.Info("redis snapshot store connected",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.Int("pool_size", opts.PoolSize),
		zap.Duration("snapshot_ttl", cfg.SnapshotTTL))
	return client, nil
}

// AddRedisChecker 添加Redis检查器到聚合器
func AddRedisChecker(aggregator *health.Aggregator, redisClient *redisstorage.Client) {
	if redisClient != nil {
		aggregator.AddChecker(health.NewRedisChecker(redisClient))
	}
}
