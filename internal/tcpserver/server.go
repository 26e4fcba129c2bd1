// Package tcpserver 总线桥服务：把本机一条音频板总线通过 TCP 暴露给远端主机，
// 远端以 transport.TCPBridge 接入。所有客户端共享同一条总线，事务逐个执行。
package tcpserver

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// Server 总线桥服务
type Server struct {
	cfg     cfgpkg.BridgeConfig
	backend transport.Transport
	logger  *zap.Logger
	limiter *ConnectionLimiter

	ln    net.Listener
	wg    sync.WaitGroup
	stopC chan struct{}

	busMu sync.Mutex
	bus   map[uint8]transport.Conn // 按设备地址缓存的后端连接

	clients    sync.Map // id -> *ConnContext
	nextConnID atomic.Uint64
	// 可选指标回调
	onAccept    func()
	onRecvBytes func(n int)
}

// New 创建总线桥服务；backend 为实际访问总线的传输
func New(cfg cfgpkg.BridgeConfig, backend transport.Transport, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		cfg:     cfg,
		backend: backend,
		logger:  logger,
		limiter: NewConnectionLimiter(cfg.MaxConnections, 0),
		stopC:   make(chan struct{}),
		bus:     make(map[uint8]transport.Conn),
	}
}

// SetMetricsCallbacks 设置指标回调
func (s *Server) SetMetricsCallbacks(onAccept func(), onRecvBytes func(int)) {
	s.onAccept, s.onRecvBytes = onAccept, onRecvBytes
}

// Addr 实际监听地址（Start 之后有效）
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Limiter 连接限制器
func (s *Server) Limiter() *ConnectionLimiter { return s.limiter }

// Start 监听并接受连接（非阻塞，内部 goroutine）
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.ln = ln
	s.logger.Info("bus bridge listening", zap.String("addr", ln.Addr().String()))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			c, err := s.ln.Accept()
			if err != nil {
				select {
				case <-s.stopC:
					return
				default:
				}
				// 短暂错误等待后重试
				time.Sleep(50 * time.Millisecond)
				continue
			}
			if s.onAccept != nil {
				s.onAccept()
			}
			if err := s.limiter.Acquire(context.Background()); err != nil {
				s.logger.Warn("bridge client rejected", zap.String("remote", c.RemoteAddr().String()), zap.Error(err))
				_ = c.Close()
				continue
			}

			cc := newConnContext(s, c)
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				defer s.limiter.Release()
				cc.run()
			}()
		}
	}()
	return nil
}

// exec 在总线锁内执行一条桥请求，返回状态码与读取的数据
func (s *Server) exec(ctx context.Context, req transport.BridgeRequest) (byte, []byte) {
	s.busMu.Lock()
	defer s.busMu.Unlock()

	conn, ok := s.bus[req.Addr]
	if !ok {
		c, err := s.backend.Open(ctx, req.Addr)
		if err != nil {
			s.logger.Warn("bridge backend open failed", zap.Uint8("addr", req.Addr), zap.Error(err))
			return transport.BridgeStatusBusError, nil
		}
		conn = c
		s.bus[req.Addr] = conn
	}

	var (
		data []byte
		err  error
	)
	switch req.Op {
	case transport.BridgeOpWrite:
		err = conn.Write(ctx, req.Payload)
	case transport.BridgeOpRead:
		data, err = conn.Read(ctx, req.Len)
	}
	if err == nil {
		return transport.BridgeStatusOK, data
	}

	s.logger.Debug("bridge transaction failed", zap.String("op", string(req.Op)), zap.Uint8("addr", req.Addr), zap.Error(err))
	var be *transport.BridgeError
	if errors.As(err, &be) {
		return be.Status, nil
	}
	// 非桥错误：丢弃后端连接，下次重新打开
	_ = conn.Close()
	delete(s.bus, req.Addr)
	return transport.BridgeStatusBusError, nil
}

// Shutdown 优雅关闭监听并等待连接退出
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.stopC)
	if s.ln != nil {
		_ = s.ln.Close()
	}
	s.clients.Range(func(_, v any) bool {
		_ = v.(*ConnContext).Close()
		return true
	})
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()

	var err error
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case <-ch:
	}

	s.busMu.Lock()
	for addr, c := range s.bus {
		_ = c.Close()
		delete(s.bus, addr)
	}
	s.busMu.Unlock()
	return err
}
