package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.uber.org/zap"
)

// ApplicationName 写入 pg_stat_activity，便于在库侧区分网关连接
const ApplicationName = "soundboard-gateway"

// PoolOptions 连接池参数，零值使用默认
type PoolOptions struct {
	MaxConns    int           // 默认 4，审计写入量很小
	MinConns    int
	MaxLifetime time.Duration // 默认 1h
	Logger      *zap.Logger   // 非 nil 时挂 SQL 追踪（debug 级别记录语句）
}

// NewPool 创建 pgx 连接池并探活
func NewPool(ctx context.Context, dsn string, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName

	if opts.Logger != nil {
		level := tracelog.LogLevelWarn
		if opts.Logger.Core().Enabled(zap.DebugLevel) {
			level = tracelog.LogLevelTrace
		}
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   &zapTraceLogger{logger: opts.Logger.Named("pg")},
			LogLevel: level,
		}
	}

	cfg.MaxConns = 4
	if opts.MaxConns > 0 {
		cfg.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		cfg.MinConns = min(int32(opts.MinConns), cfg.MaxConns)
	}
	cfg.MaxConnLifetime = time.Hour
	if opts.MaxLifetime > 0 {
		cfg.MaxConnLifetime = opts.MaxLifetime
	}
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// zapTraceLogger 把 pgx tracelog 转到 zap
type zapTraceLogger struct {
	logger *zap.Logger
}

func (l *zapTraceLogger) Log(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
	fields := make([]zap.Field, 0, len(data))
	for k, v := range data {
		fields = append(fields, zap.Any(k, v))
	}
	switch level {
	case tracelog.LogLevelError:
		l.logger.Error(msg, fields...)
	case tracelog.LogLevelWarn:
		l.logger.Warn(msg, fields...)
	case tracelog.LogLevelInfo:
		l.logger.Info(msg, fields...)
	default:
		l.logger.Debug(msg, fields...)
	}
}
