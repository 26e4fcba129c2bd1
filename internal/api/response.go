package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taoyao-code/soundboard-gateway/internal/api/middleware"
	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
	"github.com/taoyao-code/soundboard-gateway/internal/transport"
)

// StandardResponse 标准响应格式
type StandardResponse struct {
	Code      int    `json:"code"`             // 0=成功, >0=HTTP 状态码
	Message   string `json:"message"`          // 消息
	Result    string `json:"result,omitempty"` // 协议结果标签（ok/invalid_channel/...）
	Data      any    `json:"data,omitempty"`   // 业务数据
	RequestID string `json:"request_id"`       // 请求追踪ID
	Timestamp int64  `json:"timestamp"`        // 时间戳
}

var (
	errBadRequest    = errors.New("bad request")
	errAuditDisabled = errors.New("audit log disabled")
	errNoSnapshot    = errors.New("no snapshot")
)

// httpStatus 错误类别到 HTTP 状态码
func httpStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrUnknownBoard), errors.Is(err, errNoSnapshot):
		return http.StatusNotFound
	case errors.Is(err, errBadRequest),
		errors.Is(err, sbp.ErrInvalidChannel),
		errors.Is(err, soundboard.ErrMissingFile),
		errors.Is(err, soundboard.ErrUnknownOp):
		return http.StatusBadRequest
	case errors.Is(err, sbp.ErrDeviceNotReady), errors.Is(err, sbp.ErrMalformedReply):
		return http.StatusBadGateway
	case errors.Is(err, transport.ErrCircuitOpen),
		errors.Is(err, sbp.ErrTransportWriteFailed),
		errors.Is(err, sbp.ErrTransportReadFailed),
		errors.Is(err, soundboard.ErrNotStarted),
		errors.Is(err, errAuditDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, StandardResponse{
		Code:      0,
		Message:   "success",
		Result:    sbp.ResultOK,
		Data:      data,
		RequestID: c.GetString(middleware.RequestIDKey),
		Timestamp: time.Now().Unix(),
	})
}

func respondError(c *gin.Context, err error, data any) {
	code := httpStatus(err)
	resp := StandardResponse{
		Code:      code,
		Message:   err.Error(),
		Data:      data,
		RequestID: c.GetString(middleware.RequestIDKey),
		Timestamp: time.Now().Unix(),
	}
	if label := sbp.Result(err); label != sbp.ResultOther {
		resp.Result = label
	}
	c.JSON(code, resp)
}
