package transport

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// I2CBus 本机 i2c-dev 总线（如 /dev/i2c-1）
type I2CBus struct {
	Path string
}

// NewI2CBus 创建 i2c-dev 传输
func NewI2CBus(path string) *I2CBus {
	if path == "" {
		path = "/dev/i2c-1"
	}
	return &I2CBus{Path: path}
}

// i2cConn 已绑定从机地址的 i2c-dev 文件；每次 read/write 即一次总线事务
type i2cConn struct {
	mu     sync.Mutex
	f      *os.File
	addr   uint8
	closed bool
}

func (c *i2cConn) Write(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	n, err := c.f.Write(p)
	if err != nil {
		return fmt.Errorf("i2c write 0x%02X: %w", c.addr, err)
	}
	if n != len(p) {
		return fmt.Errorf("%w: %d/%d", ErrShortWrite, n, len(p))
	}
	return nil
}

func (c *i2cConn) Read(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrClosed
	}
	buf := make([]byte, n)
	m, err := c.f.Read(buf)
	if err != nil {
		return nil, fmt.Errorf("i2c read 0x%02X: %w", c.addr, err)
	}
	if m != n {
		return buf[:m], fmt.Errorf("%w: %d/%d", ErrShortRead, m, n)
	}
	return buf, nil
}

func (c *i2cConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.f.Close()
}
