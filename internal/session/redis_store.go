package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis Key设计
const (
	// sbgw:board:{name} -> Snapshot JSON
	keyBoardPrefix = "sbgw:board:"

	// 状态变更发布频道
	EventsChannel = "sbgw:events"
)

// RedisStore Redis版本的快照存储，多实例部署时共享板状态
type RedisStore struct {
	client   *redis.Client
	serverID string        // 当前服务器实例ID
	ttl      time.Duration // 快照过期时间
}

// NewRedisStore 创建Redis快照存储
func NewRedisStore(client *redis.Client, serverID string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if serverID == "" {
		serverID = uuid.New().String()
	}
	return &RedisStore{client: client, serverID: serverID, ttl: ttl}
}

// ServerID 当前实例ID
func (s *RedisStore) ServerID() string { return s.serverID }

// Save 写入快照并发布到 EventsChannel
func (s *RedisStore) Save(ctx context.Context, snap Snapshot) error {
	if snap.ServerID == "" {
		snap.ServerID = s.serverID
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, keyBoardPrefix+snap.Board, data, s.ttl)
	pipe.Publish(ctx, EventsChannel, data)
	_, err = pipe.Exec(ctx)
	return err
}

// Load 读取快照
func (s *RedisStore) Load(ctx context.Context, board string) (Snapshot, bool, error) {
	val, err := s.client.Get(ctx, keyBoardPrefix+board).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	var snap Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Subscribe 订阅状态变更；ctx 结束时关闭返回的通道
func (s *RedisStore) Subscribe(ctx context.Context) <-chan Snapshot {
	ps := s.client.Subscribe(ctx, EventsChannel)
	out := make(chan Snapshot, 16)
	go func() {
		defer close(out)
		defer ps.Close()
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var snap Snapshot
				if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
					continue
				}
				select {
				case out <- snap:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
