// Package cue 加载并执行 YAML 演出脚本：按顺序下发指令，步骤之间可等待。
package cue

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
)

// Step 脚本步骤；Wait 为该步执行成功后的等待时间
type Step struct {
	soundboard.Request `yaml:",inline"`
	Wait               time.Duration `yaml:"wait,omitempty"`
}

// Script 演出脚本
type Script struct {
	Name  string `yaml:"name"`
	Board string `yaml:"board,omitempty"` // 默认目标板，可被调用方覆盖
	Steps []Step `yaml:"steps"`
}

var ErrEmptyScript = errors.New("cue: script has no steps")

// Load 读取并校验脚本文件
func Load(path string) (*Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cue script: %w", err)
	}
	s, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse 解析并校验脚本
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal cue script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate 检查每一步的操作名、文件名与通道
func (s *Script) Validate() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	for i, st := range s.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		if st.Wait < 0 {
			return fmt.Errorf("step %d: negative wait %s", i+1, st.Wait)
		}
	}
	return nil
}

// Run 按顺序执行脚本，遇到第一个错误即停止。返回已执行步骤的结果（含失败的一步）。
func Run(ctx context.Context, b *soundboard.Board, s *Script) ([]soundboard.Outcome, error) {
	outs := make([]soundboard.Outcome, 0, len(s.Steps))
	for i, st := range s.Steps {
		out, err := soundboard.Apply(ctx, b, st.Request)
		outs = append(outs, out)
		if err != nil {
			return outs, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		if st.Wait > 0 && i < len(s.Steps)-1 {
			if err := sleep(ctx, st.Wait); err != nil {
				return outs, err
			}
		}
	}
	return outs, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
