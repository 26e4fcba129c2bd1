package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
)

// ErrUnknownBoard 未注册的板名
var ErrUnknownBoard = errors.New("session: unknown board")

// entry 一块板的会话信息
type entry struct {
	board    *soundboard.Board
	lock     chan struct{} // 容量 1 的信号量，支持 ctx 取消
	lastSeen time.Time     // 最近一次成功的总线事务
	lastFail time.Time
}

// Manager 音频板会话管理：按名称注册板，记录最近成功事务时间判断在线，
// 并为多步操作（如脚本）提供按板独占。
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	timeout time.Duration
}

func New(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Manager{entries: make(map[string]*entry), timeout: timeout}
}

// Register 注册板，同名覆盖
func (m *Manager) Register(b *soundboard.Board) {
	m.mu.Lock()
	m.entries[b.Name()] = &entry{board: b, lock: make(chan struct{}, 1)}
	m.mu.Unlock()
}

// Get 按名称取板
func (m *Manager) Get(name string) (*soundboard.Board, bool) {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return e.board, true
}

// Names 已注册板名（有序）
func (m *Manager) Names() []string {
	m.mu.RLock()
	names := make([]string, 0, len(m.entries))
	for n := range m.entries {
		names = append(names, n)
	}
	m.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Do 独占指定板执行 fn；等待期间 ctx 结束则返回 ctx 错误
func (m *Manager) Do(ctx context.Context, name string, fn func(*soundboard.Board) error) error {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBoard, name)
	}
	select {
	case e.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.lock }()
	return fn(e.board)
}

// OnSeen 记录一次成功事务
func (m *Manager) OnSeen(name string, t time.Time) {
	m.mu.Lock()
	if e, ok := m.entries[name]; ok {
		e.lastSeen = t
	}
	m.mu.Unlock()
}

// OnFailure 记录一次失败事务
func (m *Manager) OnFailure(name string, t time.Time) {
	m.mu.Lock()
	if e, ok := m.entries[name]; ok {
		e.lastFail = t
	}
	m.mu.Unlock()
}

// LastSeen 最近一次成功事务时间
func (m *Manager) LastSeen(name string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[name]
	if !ok || e.lastSeen.IsZero() {
		return time.Time{}, false
	}
	return e.lastSeen, true
}

// IsOnline 超时窗口内有成功事务，且之后没有失败
func (m *Manager) IsOnline(name string, now time.Time) bool {
	m.mu.RLock()
	e, ok := m.entries[name]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return m.online(e, now)
}

// OnlineCount 返回当前在线板数量
func (m *Manager) OnlineCount(now time.Time) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, e := range m.entries {
		if m.online(e, now) {
			count++
		}
	}
	return count
}

func (m *Manager) online(e *entry, now time.Time) bool {
	if e.lastSeen.IsZero() || now.Sub(e.lastSeen) > m.timeout {
		return false
	}
	return !e.lastFail.After(e.lastSeen)
}

// CloseAll 关闭所有板连接
func (m *Manager) CloseAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var errs []error
	for name, e := range m.entries {
		if err := e.board.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Hooks 返回记录在线状态的事件回调
func (m *Manager) Hooks() soundboard.Hooks {
	return soundboard.HookFuncs{
		Command: func(e soundboard.CommandEvent) { m.observe(e.Board, e.Err) },
		Status:  func(e soundboard.StatusEvent) { m.observe(e.Board, e.Err) },
	}
}

func (m *Manager) observe(name string, err error) {
	now := time.Now()
	if err != nil {
		m.OnFailure(name, now)
		return
	}
	m.OnSeen(name, now)
}
