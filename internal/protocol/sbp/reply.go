package sbp

import "fmt"

// 通道 1..3 对应状态半字节的 bit0..bit2；通道 0 不占位
var channelMask = [MaxChannel + 1]uint8{0, 0x01, 0x02, 0x04}

// StatusReport 一次成功解码的状态应答
type StatusReport struct {
	Volume uint8 `json:"volume"` // 0..9
	Status uint8 `json:"status"` // 通道状态半字节 0..15
}

// ChannelActive 返回通道状态：
// 通道 0 恒为 true（表示设备已应答，而非播放位）；通道 1..3 按位与判断是否在播放。
func (r StatusReport) ChannelActive(channel int) (bool, error) {
	if !ValidChannel(channel) {
		return false, channelError(channel)
	}
	if channel == 0 {
		return true, nil
	}
	return r.Status&channelMask[channel] != 0, nil
}

// DecodeReply 解析 4 字节状态应答（无副作用）
// 顺序：长度 → 标记字节 → 音量数字 → 状态半字节。
func DecodeReply(buf []byte) (StatusReport, error) {
	if len(buf) != ReplyLen {
		return StatusReport{}, fmt.Errorf("%w: length %d, want %d", ErrMalformedReply, len(buf), ReplyLen)
	}
	if buf[0] != MarkerNormal {
		return StatusReport{}, fmt.Errorf("%w: marker 0x%02X", ErrDeviceNotReady, buf[0])
	}
	vol := buf[1]
	if vol < '0' || vol > '0'+MaxVolume {
		return StatusReport{}, fmt.Errorf("%w: volume byte 0x%02X", ErrMalformedReply, vol)
	}
	// 状态半字节以 '0'+n 编码，n ∈ 0..15，即 0x30..0x3F
	st := buf[2]
	if st < '0' || st > '0'+0x0F {
		return StatusReport{}, fmt.Errorf("%w: status byte 0x%02X", ErrMalformedReply, st)
	}
	return StatusReport{
		Volume: (vol - '0') & 0x0F,
		Status: (st - '0') & 0x0F,
	}, nil
}

// EncodeReply 构造设备侧应答（模拟器与测试使用）
func EncodeReply(marker byte, volume int, status uint8) []byte {
	return []byte{marker, digit(ClampVolume(volume)), '0' + (status & 0x0F), '0'}
}
