package tcpserver

import (
	"context"
	"errors"
	"io"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// ConnContext 一个桥客户端连接：顺序读取请求、执行总线事务并应答
type ConnContext struct {
	s      *Server
	c      net.Conn
	id     uint64
	closed atomic.Bool
	logger *zap.Logger
}

func newConnContext(s *Server, c net.Conn) *ConnContext {
	id := s.nextConnID.Add(1)
	cc := &ConnContext{
		s:      s,
		c:      c,
		id:     id,
		logger: s.logger.With(zap.Uint64("conn_id", id), zap.String("remote", c.RemoteAddr().String())),
	}
	s.clients.Store(id, cc)
	return cc
}

// ID 返回连接ID（单进程唯一递增）
func (cc *ConnContext) ID() uint64 { return cc.id }

// RemoteAddr 返回远端地址
func (cc *ConnContext) RemoteAddr() net.Addr { return cc.c.RemoteAddr() }

// Close 关闭连接
func (cc *ConnContext) Close() error {
	if !cc.closed.CompareAndSwap(false, true) {
		return nil
	}
	cc.s.clients.Delete(cc.id)
	return cc.c.Close()
}

// countingReader 统计接收字节
type countingReader struct {
	r  io.Reader
	fn func(int)
}

func (c countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.fn != nil {
		c.fn(n)
	}
	return n, err
}

// run 请求/应答循环，阻塞直至连接结束
func (cc *ConnContext) run() {
	defer cc.Close()
	cc.logger.Info("bridge client connected")

	r := countingReader{r: cc.c, fn: cc.s.onRecvBytes}
	for {
		if cc.s.cfg.ReadTimeout > 0 {
			_ = cc.c.SetReadDeadline(time.Now().Add(cc.s.cfg.ReadTimeout))
		}
		req, err := transport.ReadBridgeRequest(r)
		if err != nil {
			if errors.Is(err, transport.ErrBadBridgeOp) || errors.Is(err, transport.ErrBridgeLength) {
				// 流已失步，应答后断开
				cc.logger.Warn("bad bridge request", zap.Error(err))
				_ = cc.respond(transport.BridgeStatusBadRequest, nil)
				return
			}
			if !errors.Is(err, io.EOF) && !cc.closed.Load() {
				cc.logger.Debug("bridge client read ended", zap.Error(err))
			}
			cc.logger.Info("bridge client disconnected")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), cc.busTimeout())
		status, data := cc.s.exec(ctx, req)
		cancel()
		if err := cc.respond(status, data); err != nil {
			cc.logger.Warn("bridge respond failed", zap.Error(err))
			return
		}
	}
}

func (cc *ConnContext) respond(status byte, data []byte) error {
	if cc.s.cfg.WriteTimeout > 0 {
		_ = cc.c.SetWriteDeadline(time.Now().Add(cc.s.cfg.WriteTimeout))
	}
	return transport.WriteBridgeResponse(cc.c, status, data)
}

func (cc *ConnContext) busTimeout() time.Duration {
	if cc.s.cfg.WriteTimeout > 0 {
		return cc.s.cfg.WriteTimeout
	}
	return 2 * time.Second
}
