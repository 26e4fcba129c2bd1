package sbp

import "errors"

// Tracker 设备状态缓存（音量 + 最近一次状态半字节）。
// 只由成功解码、NACK 复位与本地 VolumeUp/VolumeDown 修改；不持久化。
// 非并发安全：同一时刻只能由一个调用方持有。
type Tracker struct {
	volume uint8
	status uint8
}

// NewTracker 初始状态：音量 5，状态 0
func NewTracker() *Tracker {
	return &Tracker{volume: DefaultVolume}
}

// Decode 解析应答并更新缓存
//   - 成功：音量与状态半字节以应答为准
//   - ErrDeviceNotReady：状态半字节复位为 0，音量保持不变
//   - ErrMalformedReply：缓存不变
func (t *Tracker) Decode(buf []byte) (StatusReport, error) {
	rep, err := DecodeReply(buf)
	if err != nil {
		if errors.Is(err, ErrDeviceNotReady) {
			t.status = 0
		}
		return StatusReport{}, err
	}
	t.volume = rep.Volume
	t.status = rep.Status
	return rep, nil
}

// ChannelStatus 解码应答并返回指定通道状态；通道越界时不解码、不改动缓存
func (t *Tracker) ChannelStatus(buf []byte, channel int) (bool, error) {
	if !ValidChannel(channel) {
		return false, channelError(channel)
	}
	rep, err := t.Decode(buf)
	if err != nil {
		return false, err
	}
	return rep.ChannelActive(channel)
}

// NudgeVolume 本地乐观调整音量（VolumeUp/VolumeDown 没有专门应答），结果夹到 [0,9]
func (t *Tracker) NudgeVolume(delta int) uint8 {
	t.volume = uint8(ClampVolume(int(t.volume) + delta))
	return t.volume
}

// Volume 缓存音量 0..9
func (t *Tracker) Volume() uint8 { return t.volume }

// LastStatusValue 最近一次状态半字节 0..15
func (t *Tracker) LastStatusValue() uint8 { return t.status & 0x0F }
