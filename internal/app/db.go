package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/taoyao-code/soundboard-gateway/db"
	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/migrate"
	pgstorage "github.com/taoyao-code/soundboard-gateway/internal/storage/pg"
	"github.com/taoyao-code/soundboard-gateway/internal/storage/gormrepo"
)

// ConnectDBAndMigrate 建立数据库连接并按需执行迁移
// MigrationsDir 为空时使用内嵌迁移脚本
func ConnectDBAndMigrate(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	dbpool, err := pgstorage.NewPool(ctx, cfg.DSN, pgstorage.PoolOptions{
		MaxConns:    cfg.MaxOpenConns,
		MinConns:    cfg.MaxIdleConns,
		MaxLifetime: cfg.ConnMaxLifetime,
		Logger:      log,
	})
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, err
	}
	if cfg.AutoMigrate {
		runner := migrate.Runner{Dir: cfg.MigrationsDir, Logger: log}
		if cfg.MigrationsDir == "" {
			runner.FS = db.Migrations
		}
		applied, err := runner.Up(ctx, dbpool)
		if err != nil {
			log.Error("db migrate error", zap.Error(err))
			return dbpool, err
		}
		log.Info("db migrations applied", zap.Int("applied", applied))
	}
	return dbpool, nil
}

// NewAuditReader 基于 gorm 的审计查询
func NewAuditReader(pool *pgxpool.Pool, log *zap.Logger) (*gormrepo.Repository, *gorm.DB, error) {
	gdb, err := gormrepo.OpenFromPool(pool, log)
	if err != nil {
		return nil, nil, err
	}
	return gormrepo.New(gdb), gdb, nil
}
