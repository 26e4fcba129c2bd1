package sbp

import "fmt"

// Kind 指令类型
type Kind string

const (
	KindPlay        Kind = "play"
	KindStop        Kind = "stop"
	KindSetVolume   Kind = "set_volume"
	KindVolumeUp    Kind = "volume_up"
	KindVolumeDown  Kind = "volume_down"
	KindQueryStatus Kind = "query_status"
)

// Command 指令（Play/Stop/SetVolume/VolumeUp/VolumeDown/QueryStatus 之一）
type Command interface {
	Kind() Kind
}

// Play 在指定通道播放文件，Repeat 为 true 时循环播放
type Play struct {
	Filename string
	Channel  int
	Repeat   bool
}

// Stop 停止指定通道
type Stop struct {
	Channel int
}

// SetVolume 设置音量，编码时夹到 [0,9]
type SetVolume struct {
	Level int
}

// VolumeUp 音量 +1
type VolumeUp struct{}

// VolumeDown 音量 -1
type VolumeDown struct{}

// QueryStatus 查询状态；Channel 仅用于读取后选择状态位
type QueryStatus struct {
	Channel int
}

func (Play) Kind() Kind        { return KindPlay }
func (Stop) Kind() Kind        { return KindStop }
func (SetVolume) Kind() Kind   { return KindSetVolume }
func (VolumeUp) Kind() Kind    { return KindVolumeUp }
func (VolumeDown) Kind() Kind  { return KindVolumeDown }
func (QueryStatus) Kind() Kind { return KindQueryStatus }

// NewPlay 构造 Play 指令，通道越界返回 ErrInvalidChannel
func NewPlay(filename string, channel int, repeat bool) (Play, error) {
	if !ValidChannel(channel) {
		return Play{}, channelError(channel)
	}
	return Play{Filename: filename, Channel: channel, Repeat: repeat}, nil
}

// NewStop 构造 Stop 指令
func NewStop(channel int) (Stop, error) {
	if !ValidChannel(channel) {
		return Stop{}, channelError(channel)
	}
	return Stop{Channel: channel}, nil
}

// NewQueryStatus 构造 QueryStatus 指令
func NewQueryStatus(channel int) (QueryStatus, error) {
	if !ValidChannel(channel) {
		return QueryStatus{}, channelError(channel)
	}
	return QueryStatus{Channel: channel}, nil
}

func channelError(channel int) error {
	return fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidChannel, channel, MaxChannel)
}
