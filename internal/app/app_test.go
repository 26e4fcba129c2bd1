package app

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/health"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

func TestExampleConfigBoards(t *testing.T) {
	cfg, err := cfgpkg.Load("../../configs/example.yaml")
	require.NoError(t, err, "配置文件加载失败")

	for _, bc := range cfg.Boards {
		tr, err := NewTransport(bc)
		require.NoError(t, err, bc.Name)
		assert.NotNil(t, tr)
	}
	assert.Equal(t, 2*time.Minute, cfg.Session.OnlineTimeout)
	assert.NotNil(t, NewSessionManager(cfg.Session))
}

func TestNewTransport(t *testing.T) {
	tr, err := NewTransport(cfgpkg.BoardConfig{Name: "a", Transport: cfgpkg.TransportTCP, Endpoint: "127.0.0.1:7300"})
	require.NoError(t, err)
	assert.IsType(t, &transport.TCPBridge{}, tr)

	tr, err = NewTransport(cfgpkg.BoardConfig{Name: "a"})
	require.NoError(t, err)
	assert.IsType(t, &transport.Simulator{}, tr)

	_, err = NewTransport(cfgpkg.BoardConfig{Name: "a", Transport: "can"})
	assert.Error(t, err)
}

func TestNewBoards(t *testing.T) {
	mgr := session.New(time.Minute)
	cfgs := []cfgpkg.BoardConfig{
		{Name: "stage", Transport: cfgpkg.TransportSim, Address: 0x56, BreakerThreshold: 3},
		// 连接失败的桥：板仍注册，但未启动
		{Name: "remote", Transport: cfgpkg.TransportTCP, Endpoint: "127.0.0.1:1", Timeout: 100 * time.Millisecond},
	}
	bs, err := NewBoards(context.Background(), cfgs, mgr, mgr.Hooks(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"remote", "stage"}, mgr.Names())
	stage, _ := mgr.Get("stage")
	assert.True(t, stage.Started())
	assert.Equal(t, uint8(0x56), stage.Addr())
	remote, _ := mgr.Get("remote")
	assert.False(t, remote.Started())

	g, ok := bs.Transports["stage"].(*transport.Guard)
	require.True(t, ok)
	assert.NotNil(t, g.Breaker())
	assert.Nil(t, g.Limiter())
}

func TestBoards_RetryBegin(t *testing.T) {
	// 先占用再释放端口，得到一个暂时无人监听的地址
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	endpoint := ln.Addr().String()
	require.NoError(t, ln.Close())

	mgr := session.New(time.Minute)
	cfgs := []cfgpkg.BoardConfig{
		{Name: "stage", Transport: cfgpkg.TransportSim},
		{Name: "remote", Transport: cfgpkg.TransportTCP, Endpoint: endpoint, Address: 0x57, Timeout: 100 * time.Millisecond},
	}
	bs, err := NewBoards(context.Background(), cfgs, mgr, mgr.Hooks(), zap.NewNop())
	require.NoError(t, err)
	remote, _ := mgr.Get("remote")
	require.False(t, remote.Started())
	defer mgr.CloseAll()

	assert.Equal(t, 1, bs.RetryBegin(context.Background()))

	ln, err = net.Listen("tcp", endpoint)
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			defer c.Close()
		}
	}()

	assert.Equal(t, 0, bs.RetryBegin(context.Background()))
	assert.True(t, remote.Started())
	assert.Equal(t, uint8(0x57), remote.Addr())
}

func TestGenerateServerID(t *testing.T) {
	assert.Equal(t, "fixed", GenerateServerID("fixed"))

	t.Setenv("SERVER_ID", "from-env")
	assert.Equal(t, "from-env", GenerateServerID(""))

	t.Setenv("SERVER_ID", "")
	assert.True(t, strings.HasPrefix(GenerateServerID(""), "sbgw-"))
}

func TestNewStateStore_Memory(t *testing.T) {
	store := NewStateStore(cfgpkg.RedisConfig{}, nil, "s1", zap.NewNop())
	assert.IsType(t, &session.MemoryStore{}, store)
}

type fakePurger struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakePurger) PurgeBefore(ctx context.Context, t time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return 3, f.err
}

func TestRetentionCleaner(t *testing.T) {
	p := &fakePurger{}
	c := NewRetentionCleaner(p, time.Hour, zap.NewNop())
	c.checkInterval = 5 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Start(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.calls >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.GreaterOrEqual(t, c.Stats()["total_cleaned"], int64(6))

	failing := NewRetentionCleaner(&fakePurger{err: errors.New("db down")}, time.Hour, zap.NewNop())
	failing.clean(context.Background())
	assert.Equal(t, int64(0), failing.statsCleaned.Load())
	assert.EqualError(t, failing.LastError(), "db down")
	assert.Equal(t, "db down", failing.Stats()["last_error"])
}

func TestHealthCheckers_BusAndRetention(t *testing.T) {
	mgr := session.New(time.Minute)
	cfgs := []cfgpkg.BoardConfig{
		{Name: "stage", Transport: cfgpkg.TransportSim, BreakerThreshold: 1, BreakerCooldown: time.Minute, RatePerSec: 100},
	}
	bs, err := NewBoards(context.Background(), cfgs, mgr, mgr.Hooks(), zap.NewNop())
	require.NoError(t, err)

	agg := NewHealthAggregator(mgr)
	AddBusGuardChecker(agg, bs)
	cleaner := NewRetentionCleaner(&fakePurger{err: errors.New("db down")}, time.Hour, zap.NewNop())
	AddRetentionChecker(agg, cleaner)

	res := agg.CheckAll(context.Background())
	assert.Equal(t, health.StatusHealthy, res["bus"].Status)
	assert.Contains(t, res["bus"].Details, "stage")
	assert.Equal(t, health.StatusHealthy, res["retention"].Status)

	// 触发一次传输失败使熔断打开
	g := bs.Transports["stage"].(*transport.Guard)
	_ = g.Breaker().Call(func() error { return errors.New("nack") })
	cleaner.clean(context.Background())

	res = agg.CheckAll(context.Background())
	assert.Equal(t, health.StatusDegraded, res["bus"].Status)
	assert.Equal(t, "breaker open: stage", res["bus"].Message)
	assert.Equal(t, health.StatusDegraded, res["retention"].Status)
}
