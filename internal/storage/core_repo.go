package storage

import (
	"context"
	"time"

	"github.com/taoyao-code/soundboard-gateway/internal/storage/models"
)

// CommandQuery 指令审计查询条件
type CommandQuery struct {
	Board     string
	Command   string // 为空表示全部
	OnlyFails bool
	Since     time.Time
	Limit     int
}

// AuditReader 审计日志读取抽象（HTTP 查询使用），实现需保持 DB-agnostic
type AuditReader interface {
	// ListCommands 按时间倒序返回指令日志
	ListCommands(ctx context.Context, q CommandQuery) ([]models.CommandLog, error)
	// LatestStatus 最近一次状态记录，不存在返回 nil
	LatestStatus(ctx context.Context, board string) (*models.StatusLog, error)
	// CommandStats 按指令与结果聚合计数
	CommandStats(ctx context.Context, board string, since time.Time) ([]CommandStat, error)
}

// CommandStat 聚合计数
type CommandStat struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Count   int64  `json:"count"`
}
