// Package sbp 实现 I2C 音频板（SoundBoard）的 ASCII 指令/应答协议：
// 指令编码、4 字节状态应答解码，以及音量/状态缓存。
package sbp

// 下行帧布局（无校验、无结束符，按长度定界）：
//
//	Play:       [T|R][0-3][' '][filename...]   3..256 字节
//	Stop:       [S][0-3]                       2 字节
//	SetVolume:  [V][0-9]                       2 字节
//	VolumeUp:   "V+"                           2 字节
//	VolumeDown: "V-"                           2 字节
//
// 上行应答（只读，主机直接读取 4 字节）：
//
//	[N|other][0-9][状态半字节 '0'+n][保留]
const (
	OpPlay       byte = 'T'
	OpPlayRepeat byte = 'R'
	OpStop       byte = 'S'
	OpVolume     byte = 'V'

	VolumeStepUp   byte = '+'
	VolumeStepDown byte = '-'

	MarkerNormal byte = 'N' // 应答正常标记
)

const (
	// DefaultAddress 音频板默认 I2C 地址
	DefaultAddress uint8 = 0x55

	MaxChannel = 3

	MinVolume     = 0
	MaxVolume     = 9
	DefaultVolume = 5

	// MaxFilenameLen 文件名在帧内的最大字节数，超出部分静默截断
	MaxFilenameLen = 253
	playHeaderLen  = 3
	// MaxPlayFrameLen Play 帧最大长度（3 字节头 + 253 字节文件名）
	MaxPlayFrameLen = playHeaderLen + MaxFilenameLen
	// MaxFrameLen 非 Play 帧最大长度
	MaxFrameLen = 4

	// ReplyLen 状态应答固定长度
	ReplyLen = 4
)

// ValidChannel 通道是否在 0..3 范围内
func ValidChannel(channel int) bool {
	return channel >= 0 && channel <= MaxChannel
}

// ClampVolume 将音量夹到 [0,9]
func ClampVolume(level int) int {
	if level < MinVolume {
		return MinVolume
	}
	if level > MaxVolume {
		return MaxVolume
	}
	return level
}

func digit(v int) byte { return '0' + byte(v) }
