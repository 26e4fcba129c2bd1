package gormrepo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/taoyao-code/soundboard-gateway/internal/storage"
	"github.com/taoyao-code/soundboard-gateway/internal/storage/models"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Repository 基于 GORM 的审计日志读取实现
type Repository struct {
	db *gorm.DB
}

// New 返回一个使用给定 *gorm.DB 的 AuditReader 实例
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ storage.AuditReader = (*Repository)(nil)

// OpenFromPool 复用 pgx 连接池打开 GORM（不另建连接）
func OpenFromPool(pool *pgxpool.Pool, logger *zap.Logger) (*gorm.DB, error) {
	sqlDB := stdlib.OpenDBFromPool(pool)
	level := gormlogger.Silent
	if logger != nil && logger.Core().Enabled(zap.DebugLevel) {
		level = gormlogger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
}

// ListCommands 按时间倒序返回指令日志
func (r *Repository) ListCommands(ctx context.Context, q storage.CommandQuery) ([]models.CommandLog, error) {
	tx := r.db.WithContext(ctx).Model(&models.CommandLog{})
	if q.Board != "" {
		tx = tx.Where("board = ?", q.Board)
	}
	if q.Command != "" {
		tx = tx.Where("command = ?", q.Command)
	}
	if q.OnlyFails {
		tx = tx.Where("success = ?", false)
	}
	if !q.Since.IsZero() {
		tx = tx.Where("created_at >= ?", q.Since)
	}

	var out []models.CommandLog
	err := tx.Order("created_at DESC").Limit(clampLimit(q.Limit)).Find(&out).Error
	return out, err
}

// LatestStatus 最近一次状态记录
func (r *Repository) LatestStatus(ctx context.Context, board string) (*models.StatusLog, error) {
	var s models.StatusLog
	err := r.db.WithContext(ctx).
		Where("board = ?", board).
		Order("created_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CommandStats 按指令与结果聚合
func (r *Repository) CommandStats(ctx context.Context, board string, since time.Time) ([]storage.CommandStat, error) {
	var out []storage.CommandStat
	tx := r.db.WithContext(ctx).
		Model(&models.CommandLog{}).
		Select("command, success, COUNT(*) AS count").
		Where("board = ?", board)
	if !since.IsZero() {
		tx = tx.Where("created_at >= ?", since)
	}
	err := tx.Group("command, success").Order("command").Scan(&out).Error
	return out, err
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
