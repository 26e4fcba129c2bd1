package models

import (
	"time"

	"github.com/google/uuid"
)

// 注意：
// - 保持与 db/migrations 完全对齐
// - 不使用 gorm.Model，显式声明每个字段，避免隐式 DeletedAt

// CommandLog 映射 cmd_log 表
type CommandLog struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Board      string    `gorm:"column:board;type:text;not null" json:"board"`
	Command    string    `gorm:"column:command;type:text;not null" json:"command"`
	Channel    *int16    `gorm:"column:channel" json:"channel,omitempty"`
	Frame      []byte    `gorm:"column:frame;type:bytea;not null" json:"-"`
	Success    bool      `gorm:"column:success;not null" json:"success"`
	Error      *string   `gorm:"column:error;type:text" json:"error,omitempty"`
	DurationMS int32     `gorm:"column:duration_ms;not null" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CommandLog) TableName() string { return "cmd_log" }

// FrameText 帧的可读形式（协议帧均为 ASCII）
func (c CommandLog) FrameText() string { return string(c.Frame) }

// StatusLog 映射 status_log 表
type StatusLog struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Board     string    `gorm:"column:board;type:text;not null" json:"board"`
	Volume    int16     `gorm:"column:volume;not null" json:"volume"`
	Status    int16     `gorm:"column:status;not null" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (StatusLog) TableName() string { return "status_log" }
