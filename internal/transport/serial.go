package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// SerialBridge 通过串口访问总线桥（USB 转 I2C 的桥固件，帧格式与 TCP 桥一致）
type SerialBridge struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// NewSerialBridge 创建串口总线桥传输
func NewSerialBridge(device string, baud int, readTimeout time.Duration) *SerialBridge {
	if baud <= 0 {
		baud = 115200
	}
	if readTimeout <= 0 {
		readTimeout = 2 * time.Second
	}
	return &SerialBridge{Device: device, Baud: baud, ReadTimeout: readTimeout}
}

// Open 打开串口；串口独占，重复 Open 前须关闭旧连接。
// 事务出错后关闭端口，下一次事务重新打开并清空缓冲，丢弃迟到的应答。
func (s *SerialBridge) Open(ctx context.Context, addr uint8) (Conn, error) {
	c := &bridgeConn{dial: s.dial, addr: addr}
	l, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.link = l
	c.dials = 1
	return c, nil
}

func (s *SerialBridge) dial(ctx context.Context) (*bridgeLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	port, err := serial.OpenPort(&serial.Config{
		Name:        s.Device,
		Baud:        s.Baud,
		ReadTimeout: s.ReadTimeout,
		Size:        8,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", s.Device, err)
	}
	_ = port.Flush()
	return &bridgeLink{rw: port, closer: port}, nil
}
