// Package mqttbridge 通过 MQTT 远程控制音频板：订阅 <prefix>/<board>/cmd，
// 每处理一条指令在 <prefix>/<board>/status 发布执行结果。
package mqttbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/soundboard-gateway/internal/config"
	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
)

// 结果标签（协议层标签之外）
const (
	ResultBadRequest   = "bad_request"
	ResultUnknownBoard = "unknown_board"
)

// Command 下行指令消息
type Command struct {
	ID string `json:"id,omitempty"` // 原样回带，便于请求方关联
	soundboard.Request
}

// Reply 上行结果消息
type Reply struct {
	ID string `json:"id,omitempty"`
	soundboard.Outcome
	At time.Time `json:"at"`
}

type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Bridge MQTT 控制桥
type Bridge struct {
	cfg     cfgpkg.MQTTConfig
	mgr     *session.Manager
	logger  *zap.Logger
	client  mqtt.Client
	pub     publisher
	timeout time.Duration
}

// New 创建控制桥；ClientID 为空时生成 sbgw-<uuid 前 8 位>
func New(cfg cfgpkg.MQTTConfig, mgr *session.Manager, logger *zap.Logger) *Bridge {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = "soundboard"
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "sbgw-" + uuid.NewString()[:8]
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	b := &Bridge{
		cfg:     cfg,
		mgr:     mgr,
		logger:  logger.With(zap.String("component", "mqtt"), zap.String("client_id", cfg.ClientID)),
		timeout: 5 * time.Second,
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			b.logger.Warn("mqtt connection lost", zap.Error(err))
		})
	b.client = mqtt.NewClient(opts)
	b.pub = b.client
	return b
}

// CommandTopic 指令订阅主题
func CommandTopic(prefix string) string { return prefix + "/+/cmd" }

// StatusTopic 结果发布主题
func StatusTopic(prefix, board string) string { return prefix + "/" + board + "/status" }

// StateTopic 快照镜像主题（retained）
func StateTopic(prefix, board string) string { return prefix + "/" + board + "/state" }

// MirrorSnapshots 把快照变更以 retained 消息发布到 <prefix>/<board>/state，直到通道关闭
func (b *Bridge) MirrorSnapshots(ch <-chan session.Snapshot) {
	for snap := range ch {
		payload, err := json.Marshal(snap)
		if err != nil {
			continue
		}
		tok := b.pub.Publish(StateTopic(b.cfg.TopicPrefix, snap.Board), b.cfg.QoS, true, payload)
		if tok.WaitTimeout(b.timeout) && tok.Error() != nil {
			b.logger.Warn("mqtt publish state failed", zap.String("board", snap.Board), zap.Error(tok.Error()))
		}
	}
}

// Start 连接 broker；订阅在每次（重）连接成功后进行
func (b *Bridge) Start(ctx context.Context) error {
	tok := b.client.Connect()
	if !waitToken(ctx, tok, b.cfg.ConnectTimeout) {
		return fmt.Errorf("mqtt connect %s: timeout", b.cfg.Broker)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("mqtt connect %s: %w", b.cfg.Broker, err)
	}
	b.logger.Info("mqtt connected", zap.String("broker", b.cfg.Broker))
	return nil
}

// Stop 取消订阅并断开
func (b *Bridge) Stop() {
	if !b.client.IsConnected() {
		return
	}
	tok := b.client.Unsubscribe(CommandTopic(b.cfg.TopicPrefix))
	tok.WaitTimeout(time.Second)
	b.client.Disconnect(250)
	b.logger.Info("mqtt disconnected")
}

func (b *Bridge) onConnect(c mqtt.Client) {
	topic := CommandTopic(b.cfg.TopicPrefix)
	tok := c.Subscribe(topic, b.cfg.QoS, b.onMessage)
	if tok.WaitTimeout(b.cfg.ConnectTimeout) && tok.Error() != nil {
		b.logger.Error("mqtt subscribe failed", zap.String("topic", topic), zap.Error(tok.Error()))
		return
	}
	b.logger.Info("mqtt subscribed", zap.String("topic", topic))
}

func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	board, ok := boardFromTopic(b.cfg.TopicPrefix, msg.Topic())
	if !ok {
		b.logger.Warn("mqtt message on unexpected topic", zap.String("topic", msg.Topic()))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	reply := b.Process(ctx, board, msg.Payload())
	payload, err := json.Marshal(reply)
	if err != nil {
		b.logger.Error("mqtt marshal reply failed", zap.Error(err))
		return
	}
	tok := b.pub.Publish(StatusTopic(b.cfg.TopicPrefix, board), b.cfg.QoS, false, payload)
	if tok.WaitTimeout(b.timeout) && tok.Error() != nil {
		b.logger.Warn("mqtt publish failed", zap.String("board", board), zap.Error(tok.Error()))
	}
}

// Process 解析并执行一条指令，返回待发布的结果
func (b *Bridge) Process(ctx context.Context, board string, payload []byte) Reply {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.logger.Warn("mqtt bad command", zap.String("board", board), zap.ByteString("payload", payload), zap.Error(err))
		return Reply{
			Outcome: soundboard.Outcome{Board: board, Result: ResultBadRequest, Error: err.Error()},
			At:      time.Now(),
		}
	}

	reply := Reply{ID: cmd.ID, Outcome: soundboard.Outcome{Board: board, Op: cmd.Op, Channel: cmd.Channel}}
	err := b.mgr.Do(ctx, board, func(sb *soundboard.Board) error {
		out, err := soundboard.Apply(ctx, sb, cmd.Request)
		reply.Outcome = out
		return err
	})
	reply.At = time.Now()

	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnknownBoard):
		reply.Result = ResultUnknownBoard
		reply.Error = err.Error()
	case errors.Is(err, soundboard.ErrUnknownOp), errors.Is(err, soundboard.ErrMissingFile):
		reply.Result = ResultBadRequest
	default:
		if reply.Result == "" || reply.Result == sbp.ResultOK {
			reply.Result = sbp.Result(err)
		}
		if reply.Error == "" {
			reply.Error = err.Error()
		}
	}
	if err != nil {
		b.logger.Warn("mqtt command failed",
			zap.String("board", board),
			zap.String("op", string(cmd.Op)),
			zap.String("result", reply.Result),
			zap.Error(err),
		)
	} else {
		b.logger.Debug("mqtt command handled", zap.String("board", board), zap.String("op", string(cmd.Op)))
	}
	return reply
}

// boardFromTopic 从 <prefix>/<board>/cmd 中取板名
func boardFromTopic(prefix, topic string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, prefix+"/")
	if !ok {
		return "", false
	}
	board, ok := strings.CutSuffix(rest, "/cmd")
	if !ok || board == "" || strings.Contains(board, "/") {
		return "", false
	}
	return board, true
}

func waitToken(ctx context.Context, tok mqtt.Token, timeout time.Duration) bool {
	select {
	case <-tok.Done():
		return true
	case <-time.After(timeout):
		return false
	case <-ctx.Done():
		return false
	}
}
