package sbp

import "errors"

var (
	ErrInvalidChannel       = errors.New("invalid channel")
	ErrTransportWriteFailed = errors.New("transport write failed")
	ErrTransportReadFailed  = errors.New("transport read failed")
	ErrDeviceNotReady       = errors.New("device not ready")
	ErrMalformedReply       = errors.New("malformed reply")
)

// 结果标签，用于指标与 HTTP 状态映射
const (
	ResultOK             = "ok"
	ResultInvalidChannel = "invalid_channel"
	ResultWriteFailed    = "write_failed"
	ResultReadFailed     = "read_failed"
	ResultNotReady       = "device_not_ready"
	ResultMalformed      = "malformed_reply"
	ResultOther          = "other"
)

// Result 返回错误对应的结果标签（nil 为 ok）
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrInvalidChannel):
		return ResultInvalidChannel
	case errors.Is(err, ErrTransportWriteFailed):
		return ResultWriteFailed
	case errors.Is(err, ErrTransportReadFailed):
		return ResultReadFailed
	case errors.Is(err, ErrDeviceNotReady):
		return ResultNotReady
	case errors.Is(err, ErrMalformedReply):
		return ResultMalformed
	default:
		return ResultOther
	}
}
