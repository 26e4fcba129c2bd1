package pg

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository 指令审计与状态记录的写入端
type Repository struct {
	Pool *pgxpool.Pool
}

// CmdLog 一条下发指令记录
type CmdLog struct {
	ID       uuid.UUID
	Board    string
	Command  string
	Channel  *int // 无通道的指令为 nil
	Frame    []byte
	Success  bool
	Error    string
	Duration time.Duration
}

// InsertCmdLog 插入指令日志，ID 为空时生成
func (r *Repository) InsertCmdLog(ctx context.Context, l CmdLog) (uuid.UUID, error) {
	const q = `INSERT INTO cmd_log (id, board, command, channel, frame, success, error, duration_ms, created_at)
               VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW())`
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	var errText *string
	if l.Error != "" {
		errText = &l.Error
	}
	_, err := r.Pool.Exec(ctx, q, l.ID, l.Board, l.Command, l.Channel, l.Frame, l.Success, errText, l.Duration.Milliseconds())
	return l.ID, err
}

// InsertStatus 记录一次成功解码的状态应答
func (r *Repository) InsertStatus(ctx context.Context, board string, volume, status uint8) error {
	const q = `INSERT INTO status_log (board, volume, status, created_at) VALUES ($1,$2,$3,NOW())`
	_, err := r.Pool.Exec(ctx, q, board, int16(volume), int16(status))
	return err
}

// PurgeBefore 删除早于 t 的指令日志，返回删除行数
func (r *Repository) PurgeBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM cmd_log WHERE created_at < $1`, t)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
