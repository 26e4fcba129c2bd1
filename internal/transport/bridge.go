package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"
)

// 总线桥帧（TCP 与串口共用）：
//
//	写请求: ['W'][addr][lenHi][lenLo][payload...]  → 应答 [status]
//	读请求: ['R'][addr][lenHi][lenLo]              → 应答 [status][len 字节]（仅 status=0 时携带数据）
const (
	BridgeOpWrite byte = 'W'
	BridgeOpRead  byte = 'R'

	BridgeStatusOK         byte = 0x00
	BridgeStatusNack       byte = 0x01 // 设备未应答
	BridgeStatusBusError   byte = 0x02
	BridgeStatusBadRequest byte = 0x03

	// MaxBridgePayload 单次事务最大字节数（与最长 Play 帧一致）
	MaxBridgePayload = 256

	bridgeHeaderLen = 4
)

var (
	ErrBadBridgeOp  = errors.New("bridge: bad op")
	ErrBridgeLength = errors.New("bridge: length out of range")
)

// BridgeError 对端返回的非 0 状态
type BridgeError struct {
	Op     byte
	Status byte
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %c failed: %s (0x%02X)", e.Op, bridgeStatusName(e.Status), e.Status)
}

func bridgeStatusName(s byte) string {
	switch s {
	case BridgeStatusOK:
		return "ok"
	case BridgeStatusNack:
		return "device nack"
	case BridgeStatusBusError:
		return "bus error"
	case BridgeStatusBadRequest:
		return "bad request"
	default:
		return "unknown"
	}
}

// BridgeRequest 一条桥请求；写请求携带 Payload，读请求仅携带 Len
type BridgeRequest struct {
	Op      byte
	Addr    uint8
	Len     int
	Payload []byte
}

// EncodeBridgeRequest 构造桥请求帧
func EncodeBridgeRequest(req BridgeRequest) ([]byte, error) {
	n := req.Len
	if req.Op == BridgeOpWrite {
		n = len(req.Payload)
	}
	if n < 0 || n > MaxBridgePayload {
		return nil, fmt.Errorf("%w: %d", ErrBridgeLength, n)
	}
	var buf []byte
	switch req.Op {
	case BridgeOpWrite:
		buf = make([]byte, bridgeHeaderLen, bridgeHeaderLen+n)
		buf = append(buf, req.Payload...)
	case BridgeOpRead:
		buf = make([]byte, bridgeHeaderLen)
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrBadBridgeOp, req.Op)
	}
	buf[0] = req.Op
	buf[1] = req.Addr
	binary.BigEndian.PutUint16(buf[2:4], uint16(n))
	return buf, nil
}

// ReadBridgeRequest 从流中读取一条桥请求（服务端使用）
func ReadBridgeRequest(r io.Reader) (BridgeRequest, error) {
	var hdr [bridgeHeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return BridgeRequest{}, err
	}
	req := BridgeRequest{Op: hdr[0], Addr: hdr[1], Len: int(binary.BigEndian.Uint16(hdr[2:4]))}
	if req.Len > MaxBridgePayload {
		return req, fmt.Errorf("%w: %d", ErrBridgeLength, req.Len)
	}
	switch req.Op {
	case BridgeOpWrite:
		req.Payload = make([]byte, req.Len)
		if _, err := io.ReadFull(r, req.Payload); err != nil {
			return req, err
		}
	case BridgeOpRead:
	default:
		return req, fmt.Errorf("%w: 0x%02X", ErrBadBridgeOp, req.Op)
	}
	return req, nil
}

// WriteBridgeResponse 写应答；仅 status=0 时附带 data
func WriteBridgeResponse(w io.Writer, status byte, data []byte) error {
	buf := make([]byte, 0, 1+len(data))
	buf = append(buf, status)
	if status == BridgeStatusOK {
		buf = append(buf, data...)
	}
	_, err := w.Write(buf)
	return err
}

// bridgeLink 一条已建立的桥字节流（TCP 连接或串口）
type bridgeLink struct {
	rw          io.ReadWriter
	closer      io.Closer
	setDeadline func(time.Time) error // 串口为 nil
}

// bridgeConn 基于流的桥连接（TCP/串口）。
// 请求帧写出后任何错误都可能让对端的迟到应答留在流里，此时丢弃整条链路，
// 下一次事务重新建立，避免把上一次的应答当作本次结果。
type bridgeConn struct {
	mu        sync.Mutex
	dial      func(ctx context.Context) (*bridgeLink, error)
	link      *bridgeLink // nil 表示需要重连
	ioTimeout time.Duration
	addr      uint8
	closed    bool
	dials     int
}

func (c *bridgeConn) Write(ctx context.Context, p []byte) error {
	_, err := c.roundTrip(ctx, BridgeRequest{Op: BridgeOpWrite, Addr: c.addr, Payload: p})
	return err
}

func (c *bridgeConn) Read(ctx context.Context, n int) ([]byte, error) {
	return c.roundTrip(ctx, BridgeRequest{Op: BridgeOpRead, Addr: c.addr, Len: n})
}

func (c *bridgeConn) roundTrip(ctx context.Context, req BridgeRequest) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	frame, err := EncodeBridgeRequest(req)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}

	reused := c.link != nil
	data, answered, err := c.exchange(ctx, req, frame)
	// 空闲期间被对端关闭的链路：请求未被读取，重连后重发一次
	if err != nil && reused && !answered && isPeerClosed(err) && ctx.Err() == nil {
		data, _, err = c.exchange(ctx, req, frame)
	}
	return data, err
}

// exchange 在当前链路上完成一次请求/应答；answered 表示已收到状态字节
func (c *bridgeConn) exchange(ctx context.Context, req BridgeRequest, frame []byte) (data []byte, answered bool, err error) {
	if c.link == nil {
		if c.dial == nil {
			return nil, false, ErrClosed
		}
		l, err := c.dial(ctx)
		if err != nil {
			return nil, false, err
		}
		c.link = l
		c.dials++
	}
	l := c.link
	if l.setDeadline != nil {
		_ = l.setDeadline(deadline(ctx, c.ioTimeout))
	}
	if _, err := l.rw.Write(frame); err != nil {
		c.dropLink()
		return nil, false, err
	}

	var status [1]byte
	if _, err := io.ReadFull(l.rw, status[:]); err != nil {
		c.dropLink()
		return nil, false, err
	}
	if status[0] != BridgeStatusOK {
		// 非 0 状态不携带数据，流仍同步
		return nil, true, &BridgeError{Op: req.Op, Status: status[0]}
	}
	if req.Op == BridgeOpWrite {
		return nil, true, nil
	}
	data = make([]byte, req.Len)
	if _, err := io.ReadFull(l.rw, data); err != nil {
		c.dropLink()
		return nil, true, err
	}
	return data, true, nil
}

func (c *bridgeConn) dropLink() {
	if c.link == nil {
		return
	}
	if c.link.closer != nil {
		_ = c.link.closer.Close()
	}
	c.link = nil
}

// isPeerClosed 对端已关闭连接（EOF、RST、管道破裂）
func isPeerClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

func (c *bridgeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var err error
	if c.link != nil && c.link.closer != nil {
		err = c.link.closer.Close()
	}
	c.link = nil
	return err
}
