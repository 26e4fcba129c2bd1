package soundboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
)

// Op 远程控制操作名（MQTT、脚本、命令行共用）
type Op string

const (
	OpPlay   Op = "play"
	OpStop   Op = "stop"
	OpVolume Op = "volume"
	OpUp     Op = "up"
	OpDown   Op = "down"
	OpStatus Op = "status"
)

var (
	ErrUnknownOp   = errors.New("soundboard: unknown op")
	ErrMissingFile = errors.New("soundboard: play requires file")
)

// Request 一次控制请求。缺省值：channel 0、repeat false、level 5。
type Request struct {
	Op      Op     `json:"op" yaml:"op"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
	Channel int    `json:"channel,omitempty" yaml:"channel,omitempty"`
	Repeat  bool   `json:"repeat,omitempty" yaml:"repeat,omitempty"`
	Level   *int   `json:"level,omitempty" yaml:"level,omitempty"`
}

// Validate 在下发前检查操作名、文件名与通道
func (r Request) Validate() error {
	switch r.Op {
	case OpPlay:
		if r.File == "" {
			return ErrMissingFile
		}
	case OpStop, OpStatus:
	case OpVolume, OpUp, OpDown:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, r.Op)
	}
	if !sbp.ValidChannel(r.Channel) {
		return fmt.Errorf("%w: %d", sbp.ErrInvalidChannel, r.Channel)
	}
	return nil
}

// LevelOrDefault 未指定音量时为 5
func (r Request) LevelOrDefault() int {
	if r.Level == nil {
		return sbp.DefaultVolume
	}
	return *r.Level
}

// Outcome 执行结果与执行后的缓存状态
type Outcome struct {
	Board   string `json:"board"`
	Op      Op     `json:"op"`
	Channel int    `json:"channel"`
	Active  *bool  `json:"active,omitempty"`
	Volume  uint8  `json:"volume"`
	Status  uint8  `json:"status"`
	Result  string `json:"result"`
	Error   string `json:"error,omitempty"`
}

// Apply 在板上执行一次请求。出错时 Outcome 仍携带当前缓存状态。
func Apply(ctx context.Context, b *Board, r Request) (Outcome, error) {
	out := Outcome{Board: b.Name(), Op: r.Op, Channel: r.Channel}

	err := r.Validate()
	if err == nil {
		switch r.Op {
		case OpPlay:
			err = b.Play(ctx, r.File, r.Channel, r.Repeat)
		case OpStop:
			err = b.Stop(ctx, r.Channel)
		case OpVolume:
			err = b.SetVolume(ctx, r.LevelOrDefault())
		case OpUp:
			err = b.VolumeUp(ctx)
		case OpDown:
			err = b.VolumeDown(ctx)
		case OpStatus:
			var active bool
			active, err = b.Status(ctx, r.Channel)
			if err == nil {
				out.Active = &active
			}
		}
	}

	out.Volume = b.Volume()
	out.Status = b.LastStatusValue()
	out.Result = sbp.Result(err)
	if err != nil {
		out.Error = err.Error()
	}
	return out, err
}
