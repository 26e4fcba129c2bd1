package app

import (
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	redisstorage "github.com/taoyao-code/soundboard-gateway/internal/storage/redis"
)

// NewSessionManager 构造板会话管理器
func NewSessionManager(cfg cfgpkg.SessionConfig) *session.Manager {
	return session.New(cfg.OnlineTimeout)
}

// NewStateStore 构造状态快照存储
// 如果Redis客户端可用，则使用Redis存储（多实例共享并发布变更），否则使用内存存储
func NewStateStore(cfg cfgpkg.RedisConfig, redisClient *redisstorage.Client, serverID string, logger *zap.Logger) session.StateStore {
	if redisClient != nil {
		logger.Info("using redis state store",
			zap.String("server_id", serverID),
			zap.Duration("ttl", cfg.SnapshotTTL))
		return session.NewRedisStore(redisClient.Client, serverID, cfg.SnapshotTTL)
	}
	logger.Info("using memory state store")
	return session.NewMemoryStore()
}
