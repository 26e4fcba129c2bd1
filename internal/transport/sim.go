package transport

import (
	"context"
	"sync"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
)

// notReadyMarker 模拟器忙/未就绪时返回的标记字节
const notReadyMarker byte = 'B'

// Simulator 内存模拟音频板：解析下行帧，维护音量与通道播放位，并按协议应答状态。
// 通道 k(1..3) 占状态半字节 bit(k-1)；通道 0 的播放请求被接受但不占位。
type Simulator struct {
	mu       sync.Mutex
	volume   int
	busy     uint8
	notReady bool
	frames   [][]byte
	opens    int

	writeErr error
	readErr  error
}

// NewSimulator 初始音量 5，所有通道空闲
func NewSimulator() *Simulator {
	return &Simulator{volume: sbp.DefaultVolume}
}

// Open 任意地址均可打开
func (s *Simulator) Open(ctx context.Context, addr uint8) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.opens++
	s.mu.Unlock()
	return &simConn{s: s}, nil
}

// Handle 处理一帧下行数据（设备侧语义）。无法识别的帧被忽略，与真实设备一致。
func (s *Simulator) Handle(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := make([]byte, len(frame))
	copy(dup, frame)
	s.frames = append(s.frames, dup)

	if len(frame) < 2 {
		return
	}
	switch frame[0] {
	case sbp.OpPlay, sbp.OpPlayRepeat:
		if len(frame) < 3 || frame[2] != ' ' {
			return
		}
		if ch, ok := simChannel(frame[1]); ok && ch > 0 {
			s.busy |= 1 << (ch - 1)
		}
	case sbp.OpStop:
		if ch, ok := simChannel(frame[1]); ok && ch > 0 {
			s.busy &^= 1 << (ch - 1)
		}
	case sbp.OpVolume:
		switch b := frame[1]; {
		case b == sbp.VolumeStepUp:
			s.volume = sbp.ClampVolume(s.volume + 1)
		case b == sbp.VolumeStepDown:
			s.volume = sbp.ClampVolume(s.volume - 1)
		case b >= '0' && b <= '9':
			s.volume = int(b - '0')
		}
	}
}

// Reply 当前状态应答（4 字节）
func (s *Simulator) Reply() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	marker := sbp.MarkerNormal
	if s.notReady {
		marker = notReadyMarker
	}
	return sbp.EncodeReply(marker, s.volume, s.busy)
}

// SetNotReady 模拟设备未就绪（应答标记非 'N'）
func (s *Simulator) SetNotReady(v bool) {
	s.mu.Lock()
	s.notReady = v
	s.mu.Unlock()
}

// FailWrites 注入写失败；nil 恢复
func (s *Simulator) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// FailReads 注入读失败；nil 恢复
func (s *Simulator) FailReads(err error) {
	s.mu.Lock()
	s.readErr = err
	s.mu.Unlock()
}

// Frames 已收到的下行帧副本
func (s *Simulator) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

// Volume 设备侧音量
func (s *Simulator) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Busy 设备侧通道状态半字节
func (s *Simulator) Busy() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Opens Open 调用次数
func (s *Simulator) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func simChannel(b byte) (int, bool) {
	ch := int(b) - '0'
	return ch, sbp.ValidChannel(ch)
}

type simConn struct {
	s      *Simulator
	mu     sync.Mutex
	closed bool
}

func (c *simConn) Write(ctx context.Context, p []byte) error {
	if err := c.check(ctx); err != nil {
		return err
	}
	c.s.mu.Lock()
	werr := c.s.writeErr
	c.s.mu.Unlock()
	if werr != nil {
		return werr
	}
	c.s.Handle(p)
	return nil
}

func (c *simConn) Read(ctx context.Context, n int) ([]byte, error) {
	if err := c.check(ctx); err != nil {
		return nil, err
	}
	c.s.mu.Lock()
	rerr := c.s.readErr
	c.s.mu.Unlock()
	if rerr != nil {
		return nil, rerr
	}
	reply := c.s.Reply()
	out := make([]byte, n)
	// 超出应答长度的部分按总线空闲电平 0xFF 填充
	for i := range out {
		if i < len(reply) {
			out[i] = reply[i]
		} else {
			out[i] = 0xFF
		}
	}
	return out, nil
}

func (c *simConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *simConn) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
