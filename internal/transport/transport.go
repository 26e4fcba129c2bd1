// Package transport 提供音频板总线传输：本机 i2c-dev、TCP/串口总线桥，以及内存模拟器。
// 协议层只通过 Transport/Conn 访问总线，不关心寻址与时序。
package transport

import (
	"context"
	"errors"
	"time"
)

// Transport 总线传输：按设备地址打开连接
type Transport interface {
	Open(ctx context.Context, addr uint8) (Conn, error)
}

// Conn 一个已寻址的设备连接。每次 Write 是一次完整的总线写事务，Read 读取恰好 n 字节。
type Conn interface {
	Write(ctx context.Context, p []byte) error
	Read(ctx context.Context, n int) ([]byte, error)
	Close() error
}

var (
	ErrClosed     = errors.New("transport: connection closed")
	ErrShortWrite = errors.New("transport: short write")
	ErrShortRead  = errors.New("transport: short read")
)

// deadline 取 ctx 截止时间，没有则使用默认 IO 超时（0 表示不设超时）
func deadline(ctx context.Context, fallback time.Duration) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	if fallback > 0 {
		return time.Now().Add(fallback)
	}
	return time.Time{}
}
