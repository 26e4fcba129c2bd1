package transport

import (
	"context"
	"fmt"
	"net"
	"time"
)

// TCPBridge 通过 TCP 访问远端总线桥（见 internal/tcpserver）
type TCPBridge struct {
	Endpoint    string
	DialTimeout time.Duration
	IOTimeout   time.Duration
}

// NewTCPBridge 创建 TCP 总线桥传输
func NewTCPBridge(endpoint string, dialTimeout, ioTimeout time.Duration) *TCPBridge {
	if dialTimeout <= 0 {
		dialTimeout = 3 * time.Second
	}
	return &TCPBridge{Endpoint: endpoint, DialTimeout: dialTimeout, IOTimeout: ioTimeout}
}

// Open 建立 TCP 连接；地址随每个请求发送。
// 连接断开（对端空闲超时、重启、IO 超时）后，下一次事务自动重新拨号。
func (t *TCPBridge) Open(ctx context.Context, addr uint8) (Conn, error) {
	c := &bridgeConn{dial: t.dial, ioTimeout: t.IOTimeout, addr: addr}
	l, err := t.dial(ctx)
	if err != nil {
		return nil, err
	}
	c.link = l
	c.dials = 1
	return c, nil
}

func (t *TCPBridge) dial(ctx context.Context) (*bridgeLink, error) {
	d := net.Dialer{Timeout: t.DialTimeout}
	nc, err := d.DialContext(ctx, "tcp", t.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", t.Endpoint, err)
	}
	return &bridgeLink{rw: nc, closer: nc, setDeadline: nc.SetDeadline}, nil
}
