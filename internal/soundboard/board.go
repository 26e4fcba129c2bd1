// Package soundboard 音频板驱动：把协议编码、传输与状态缓存组合成面向调用方的操作。
package soundboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// ErrNotStarted 未调用 Begin
var ErrNotStarted = errors.New("soundboard: not started")

// Board 一块音频板。操作之间互斥，同一时刻只有一个总线事务在途。
type Board struct {
	name   string
	tr     transport.Transport
	logger *zap.Logger
	hooks  Hooks

	mu      sync.Mutex
	conn    transport.Conn
	addr    uint8
	tracker *sbp.Tracker
}

// Option 构造选项
type Option func(*Board)

// WithLogger 设置日志器（默认 zap.NewNop）
func WithLogger(l *zap.Logger) Option {
	return func(b *Board) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithHooks 设置事件回调
func WithHooks(h Hooks) Option {
	return func(b *Board) {
		if h != nil {
			b.hooks = h
		}
	}
}

// WithName 设置板名（日志与事件使用）
func WithName(name string) Option {
	return func(b *Board) { b.name = name }
}

// New 创建音频板驱动，需调用 Begin 后才能下发指令
func New(tr transport.Transport, opts ...Option) *Board {
	b := &Board{
		name:    "default",
		tr:      tr,
		logger:  zap.NewNop(),
		hooks:   nopHooks{},
		addr:    sbp.DefaultAddress,
		tracker: sbp.NewTracker(),
	}
	for _, o := range opts {
		o(b)
	}
	b.logger = b.logger.With(zap.String("board", b.name))
	return b
}

// Begin 打开设备地址；重复调用时先关闭旧连接。addr 为 0 使用默认地址 0x55。
func (b *Board) Begin(ctx context.Context, addr uint8) error {
	if addr == 0 {
		addr = sbp.DefaultAddress
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			b.logger.Warn("close previous connection failed", zap.Error(err))
		}
		b.conn = nil
	}
	conn, err := b.tr.Open(ctx, addr)
	if err != nil {
		return fmt.Errorf("open board 0x%02X: %w", addr, err)
	}
	b.conn = conn
	b.addr = addr
	b.logger.Info("board started", zap.String("addr", fmt.Sprintf("0x%02X", addr)))
	return nil
}

// Name 板名
func (b *Board) Name() string { return b.name }

// Addr 当前设备地址
func (b *Board) Addr() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addr
}

// Started 是否已 Begin
func (b *Board) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

// Play 在指定通道播放文件；repeat 为 true 时循环播放
func (b *Board) Play(ctx context.Context, filename string, channel int, repeat bool) error {
	frame, err := sbp.EncodePlay(filename, channel, repeat)
	if err != nil {
		return err
	}
	return b.send(ctx, sbp.KindPlay, channel, frame)
}

// Stop 停止指定通道
func (b *Board) Stop(ctx context.Context, channel int) error {
	frame, err := sbp.EncodeStop(channel)
	if err != nil {
		return err
	}
	return b.send(ctx, sbp.KindStop, channel, frame)
}

// SetVolume 设置绝对音量（越界夹到 [0,9]），不修改本地缓存
func (b *Board) SetVolume(ctx context.Context, level int) error {
	return b.send(ctx, sbp.KindSetVolume, -1, sbp.EncodeSetVolume(level))
}

// VolumeUp 音量 +1：先乐观更新缓存，再下发 V+（写失败不回滚）
func (b *Board) VolumeUp(ctx context.Context) error {
	return b.nudge(ctx, sbp.KindVolumeUp, +1, sbp.EncodeVolumeUp())
}

// VolumeDown 音量 -1
func (b *Board) VolumeDown(ctx context.Context) error {
	return b.nudge(ctx, sbp.KindVolumeDown, -1, sbp.EncodeVolumeDown())
}

func (b *Board) nudge(ctx context.Context, kind sbp.Kind, delta int, frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.tracker.NudgeVolume(delta)
	b.logger.Debug("volume nudged", zap.Int("delta", delta), zap.Uint8("volume", v))
	return b.writeLocked(ctx, kind, -1, frame)
}

// Status 读取设备状态并返回指定通道是否在播放。通道 0 恒为 true。
func (b *Board) Status(ctx context.Context, channel int) (bool, error) {
	if !sbp.ValidChannel(channel) {
		return false, fmt.Errorf("%w: %d", sbp.ErrInvalidChannel, channel)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.readLocked(ctx)
	if err != nil {
		b.emitStatus(channel, sbp.StatusReport{}, false, err)
		return false, err
	}
	active, err := b.tracker.ChannelStatus(buf, channel)
	rep := sbp.StatusReport{Volume: b.tracker.Volume(), Status: b.tracker.LastStatusValue()}
	if err != nil {
		b.logger.Warn("status reply rejected", zap.Binary("reply", buf), zap.Error(err))
	}
	b.emitStatus(channel, rep, active, err)
	return active, err
}

// Report 读取完整状态（音量 + 状态半字节）
func (b *Board) Report(ctx context.Context) (sbp.StatusReport, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	buf, err := b.readLocked(ctx)
	if err != nil {
		b.emitStatus(-1, sbp.StatusReport{}, false, err)
		return sbp.StatusReport{}, err
	}
	rep, err := b.tracker.Decode(buf)
	if err != nil {
		b.logger.Warn("status reply rejected", zap.Binary("reply", buf), zap.Error(err))
	}
	b.emitStatus(-1, rep, false, err)
	return rep, err
}

// Volume 缓存音量
func (b *Board) Volume() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracker.Volume()
}

// LastStatusValue 最近一次状态半字节
func (b *Board) LastStatusValue() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracker.LastStatusValue()
}

// Close 关闭连接；未 Begin 时为空操作
func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return nil
	}
	err := b.conn.Close()
	b.conn = nil
	return err
}

func (b *Board) send(ctx context.Context, kind sbp.Kind, channel int, frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.writeLocked(ctx, kind, channel, frame)
}

func (b *Board) writeLocked(ctx context.Context, kind sbp.Kind, channel int, frame []byte) error {
	start := time.Now()
	var err error
	if b.conn == nil {
		err = ErrNotStarted
	} else if werr := b.conn.Write(ctx, frame); werr != nil {
		err = fmt.Errorf("%w: %w", sbp.ErrTransportWriteFailed, werr)
	}

	if err != nil {
		b.logger.Warn("frame write failed", zap.String("cmd", string(kind)), zap.ByteString("frame", frame), zap.Error(err))
	} else {
		b.logger.Debug("frame sent", zap.String("cmd", string(kind)), zap.ByteString("frame", frame))
	}
	b.hooks.OnCommand(CommandEvent{
		Board:    b.name,
		Kind:     kind,
		Channel:  channel,
		Frame:    frame,
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}

func (b *Board) readLocked(ctx context.Context) ([]byte, error) {
	if b.conn == nil {
		return nil, ErrNotStarted
	}
	buf, err := b.conn.Read(ctx, sbp.ReplyLen)
	if err != nil {
		b.logger.Warn("status read failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", sbp.ErrTransportReadFailed, err)
	}
	b.logger.Debug("status received", zap.ByteString("reply", buf))
	return buf, nil
}

func (b *Board) emitStatus(channel int, rep sbp.StatusReport, active bool, err error) {
	b.hooks.OnStatus(StatusEvent{
		Board:   b.name,
		Channel: channel,
		Report:  rep,
		Active:  active,
		Err:     err,
	})
}
