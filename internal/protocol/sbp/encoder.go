package sbp

import "fmt"

// EncodePlay 构造 Play 帧：[T|R][通道][' '][文件名]
// 文件名原样拷贝（不转义），超过 253 字节静默截断；调用方如需拒绝过长文件名应自行预检。
func EncodePlay(filename string, channel int, repeat bool) ([]byte, error) {
	if !ValidChannel(channel) {
		return nil, channelError(channel)
	}
	name := filename
	if len(name) > MaxFilenameLen {
		name = name[:MaxFilenameLen]
	}

	frame := make([]byte, 0, playHeaderLen+len(name))
	op := OpPlay
	if repeat {
		op = OpPlayRepeat
	}
	frame = append(frame, op, digit(channel), ' ')
	frame = append(frame, name...)
	return frame, nil
}

// EncodeStop 构造 Stop 帧：[S][通道]
func EncodeStop(channel int) ([]byte, error) {
	if !ValidChannel(channel) {
		return nil, channelError(channel)
	}
	return []byte{OpStop, digit(channel)}, nil
}

// EncodeSetVolume 构造 SetVolume 帧：[V][音量]
// 音量先夹到 [0,9] 再编码（宽松策略，不报错）。
func EncodeSetVolume(level int) []byte {
	return []byte{OpVolume, digit(ClampVolume(level))}
}

// EncodeVolumeUp 固定帧 "V+"
func EncodeVolumeUp() []byte { return []byte{OpVolume, VolumeStepUp} }

// EncodeVolumeDown 固定帧 "V-"
func EncodeVolumeDown() []byte { return []byte{OpVolume, VolumeStepDown} }

// EncodeQueryStatus 状态查询没有下行帧：主机直接读取 4 字节应答。
// 这里只校验通道，返回的帧恒为 nil。
func EncodeQueryStatus(channel int) ([]byte, error) {
	if !ValidChannel(channel) {
		return nil, channelError(channel)
	}
	return nil, nil
}

// Encode 按指令类型编码
func Encode(cmd Command) ([]byte, error) {
	switch c := cmd.(type) {
	case Play:
		return EncodePlay(c.Filename, c.Channel, c.Repeat)
	case *Play:
		return EncodePlay(c.Filename, c.Channel, c.Repeat)
	case Stop:
		return EncodeStop(c.Channel)
	case *Stop:
		return EncodeStop(c.Channel)
	case SetVolume:
		return EncodeSetVolume(c.Level), nil
	case *SetVolume:
		return EncodeSetVolume(c.Level), nil
	case VolumeUp, *VolumeUp:
		return EncodeVolumeUp(), nil
	case VolumeDown, *VolumeDown:
		return EncodeVolumeDown(), nil
	case QueryStatus:
		return EncodeQueryStatus(c.Channel)
	case *QueryStatus:
		return EncodeQueryStatus(c.Channel)
	default:
		return nil, fmt.Errorf("unsupported command %T", cmd)
	}
}
