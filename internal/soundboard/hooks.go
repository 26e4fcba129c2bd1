package soundboard

import (
	"time"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
)

// CommandEvent 一次下发指令的结果
type CommandEvent struct {
	Board    string
	Kind     sbp.Kind
	Channel  int // 无通道的指令为 -1
	Frame    []byte
	Err      error
	Duration time.Duration
}

// StatusEvent 一次状态读取的结果
type StatusEvent struct {
	Board   string
	Channel int // Report 为 -1
	Report  sbp.StatusReport
	Active  bool
	Err     error
}

// Hooks 指令与状态事件回调（指标、审计日志、状态发布）。
// 回调在持有板锁时同步执行，实现方不得回调 Board。
type Hooks interface {
	OnCommand(CommandEvent)
	OnStatus(StatusEvent)
}

type nopHooks struct{}

func (nopHooks) OnCommand(CommandEvent) {}
func (nopHooks) OnStatus(StatusEvent)   {}

// MultiHooks 依次调用多个回调
type MultiHooks []Hooks

func (m MultiHooks) OnCommand(e CommandEvent) {
	for _, h := range m {
		if h != nil {
			h.OnCommand(e)
		}
	}
}

func (m MultiHooks) OnStatus(e StatusEvent) {
	for _, h := range m {
		if h != nil {
			h.OnStatus(e)
		}
	}
}

// HookFuncs 以函数形式提供回调，未设置的字段忽略
type HookFuncs struct {
	Command func(CommandEvent)
	Status  func(StatusEvent)
}

func (f HookFuncs) OnCommand(e CommandEvent) {
	if f.Command != nil {
		f.Command(e)
	}
}

func (f HookFuncs) OnStatus(e StatusEvent) {
	if f.Status != nil {
		f.Status(e)
	}
}
