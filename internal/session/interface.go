package session

import (
	"context"
	"sync"
	"time"
)

// Snapshot 一块板最近一次已知状态
type Snapshot struct {
	Board     string    `json:"board"`
	Addr      uint8     `json:"addr"`
	Volume    uint8     `json:"volume"`
	Status    uint8     `json:"status"`
	Online    bool      `json:"online"`
	LastError string    `json:"last_error,omitempty"`
	ServerID  string    `json:"server_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore 板状态快照存储，支持内存和 Redis 两种实现
type StateStore interface {
	// Save 保存快照并发布变更
	Save(ctx context.Context, s Snapshot) error

	// Load 读取快照，不存在时 ok=false
	Load(ctx context.Context, board string) (s Snapshot, ok bool, err error)
}

// MemoryStore 进程内快照存储（未配置 Redis 时使用）
type MemoryStore struct {
	mu sync.RWMutex
	m  map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]Snapshot)}
}

func (s *MemoryStore) Save(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	s.m[snap.Board] = snap
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, board string) (Snapshot, bool, error) {
	s.mu.RLock()
	snap, ok := s.m[board]
	s.mu.RUnlock()
	return snap, ok, nil
}
