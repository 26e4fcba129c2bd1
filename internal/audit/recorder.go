// Package audit 异步记录板事件：指令审计写入 PostgreSQL，状态快照写入 StateStore（Redis/内存）。
// 事件在板锁内产生，这里只入队，由 Run 在后台消费，避免数据库延迟拖慢总线。
package audit

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
	"github.com/taoyao-code/soundboard-gateway/internal/storage/pg"
)

// Sink 审计写入端（pg.Repository 实现）
type Sink interface {
	InsertCmdLog(ctx context.Context, l pg.CmdLog) (uuid.UUID, error)
	InsertStatus(ctx context.Context, board string, volume, status uint8) error
}

type item struct {
	cmd    *soundboard.CommandEvent
	status *soundboard.StatusEvent
	at     time.Time
}

// Recorder 审计记录器
type Recorder struct {
	sink   Sink               // 可为 nil（未启用数据库）
	store  session.StateStore // 可为 nil
	logger *zap.Logger

	queue        chan item
	dropped      atomic.Int64
	WriteTimeout time.Duration
	DrainTimeout time.Duration
}

// New 创建记录器；queueSize 为事件缓冲长度，满时丢弃并计数
func New(sink Sink, store session.StateStore, logger *zap.Logger, queueSize int) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Recorder{
		sink:         sink,
		store:        store,
		logger:       logger,
		queue:        make(chan item, queueSize),
		WriteTimeout: 3 * time.Second,
		DrainTimeout: 2 * time.Second,
	}
}

// Dropped 队列满被丢弃的事件数
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Hooks 返回入队回调
func (r *Recorder) Hooks() soundboard.Hooks {
	return soundboard.HookFuncs{
		Command: func(e soundboard.CommandEvent) {
			e.Frame = append([]byte(nil), e.Frame...)
			r.enqueue(item{cmd: &e, at: time.Now()})
		},
		Status: func(e soundboard.StatusEvent) {
			r.enqueue(item{status: &e, at: time.Now()})
		},
	}
}

func (r *Recorder) enqueue(it item) {
	select {
	case r.queue <- it:
	default:
		r.dropped.Add(1)
	}
}

// Run 消费事件直到 ctx 结束，随后在 DrainTimeout 内写完剩余事件
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case it := <-r.queue:
			r.handle(context.Background(), it)
		}
	}
}

func (r *Recorder) drain() {
	deadline := time.Now().Add(r.DrainTimeout)
	for time.Now().Before(deadline) {
		select {
		case it := <-r.queue:
			r.handle(context.Background(), it)
		default:
			return
		}
	}
}

func (r *Recorder) handle(parent context.Context, it item) {
	ctx, cancel := context.WithTimeout(parent, r.WriteTimeout)
	defer cancel()
	switch {
	case it.cmd != nil:
		r.recordCommand(ctx, *it.cmd)
	case it.status != nil:
		r.recordStatus(ctx, *it.status, it.at)
	}
}

func (r *Recorder) recordCommand(ctx context.Context, e soundboard.CommandEvent) {
	if r.sink == nil {
		return
	}
	l := pg.CmdLog{
		Board:    e.Board,
		Command:  string(e.Kind),
		Frame:    e.Frame,
		Success:  e.Err == nil,
		Duration: e.Duration,
	}
	if e.Channel >= 0 {
		ch := e.Channel
		l.Channel = &ch
	}
	if e.Err != nil {
		l.Error = e.Err.Error()
	}
	if _, err := r.sink.InsertCmdLog(ctx, l); err != nil {
		r.logger.Warn("insert cmd log failed", zap.String("board", e.Board), zap.Error(err))
	}
}

func (r *Recorder) recordStatus(ctx context.Context, e soundboard.StatusEvent, at time.Time) {
	if e.Err == nil && r.sink != nil {
		if err := r.sink.InsertStatus(ctx, e.Board, e.Report.Volume, e.Report.Status); err != nil {
			r.logger.Warn("insert status failed", zap.String("board", e.Board), zap.Error(err))
		}
	}
	if r.store == nil {
		return
	}

	snap, _, err := r.store.Load(ctx, e.Board)
	if err != nil {
		r.logger.Warn("load snapshot failed", zap.String("board", e.Board), zap.Error(err))
	}
	snap.Board = e.Board
	snap.UpdatedAt = at
	if e.Err != nil {
		snap.Online = false
		snap.LastError = e.Err.Error()
	} else {
		snap.Online = true
		snap.LastError = ""
		snap.Volume = e.Report.Volume
		snap.Status = e.Report.Status
	}
	if err := r.store.Save(ctx, snap); err != nil {
		r.logger.Warn("save snapshot failed", zap.String("board", e.Board), zap.Error(err))
	}
}
