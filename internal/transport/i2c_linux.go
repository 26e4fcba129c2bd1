//go:build linux

package transport

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// i2cSlave linux/i2c-dev.h 中的 I2C_SLAVE
const i2cSlave = 0x0703

// Open 打开 i2c-dev 并绑定从机地址
func (b *I2CBus) Open(ctx context.Context, addr uint8) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(b.Path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", b.Path, err)
	}
	if err := unix.IoctlSetInt(int(f.Fd()), i2cSlave, int(addr)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("set i2c slave 0x%02X on %s: %w", addr, b.Path, err)
	}
	return &i2cConn{f: f, addr: addr}, nil
}
