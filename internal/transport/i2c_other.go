//go:build !linux

package transport

import (
	"context"
	"errors"
)

var errI2CUnsupported = errors.New("transport: i2c-dev is only available on linux")

// Open 非 linux 平台不支持 i2c-dev
func (b *I2CBus) Open(ctx context.Context, addr uint8) (Conn, error) {
	return nil, errI2CUnsupported
}
