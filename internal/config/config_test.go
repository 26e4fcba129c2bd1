package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load("../../configs/example.yaml")
	require.NoError(t, err)

	assert.Equal(t, "soundboard-gateway", cfg.App.Name)
	require.Len(t, cfg.Boards, 2)
	assert.Equal(t, "stage", cfg.Boards[0].Name)
	assert.Equal(t, uint8(0x55), cfg.Boards[0].Address)
	assert.Equal(t, TransportI2C, cfg.Boards[1].Transport)
	assert.Equal(t, 10*time.Second, cfg.Boards[1].BreakerCooldown)
	assert.Equal(t, 2*time.Minute, cfg.Session.OnlineTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_DefaultsAndDefaultBoard(t *testing.T) {
	p := writeConfig(t, "app:\n  env: test\n")
	cfg, err := Load(p)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.App.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, "soundboard", cfg.MQTT.TopicPrefix)
	require.Len(t, cfg.Boards, 1)
	assert.Equal(t, TransportSim, cfg.Boards[0].Transport)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("SBGW_HTTP_ADDR", ":9999")
	p := writeConfig(t, "app:\n  name: x\n")
	cfg, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoad_BadFile(t *testing.T) {
	p := writeConfig(t, "app: [unterminated\n")
	_, err := Load(p)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		boards []BoardConfig
		bridge BridgeConfig
		ok     bool
	}{
		{"合法", []BoardConfig{{Name: "a", Transport: TransportSim}}, BridgeConfig{}, true},
		{"缺少名称", []BoardConfig{{Transport: TransportSim}}, BridgeConfig{}, false},
		{"重名", []BoardConfig{{Name: "a", Transport: TransportSim}, {Name: "a", Transport: TransportI2C}}, BridgeConfig{}, false},
		{"未知传输", []BoardConfig{{Name: "a", Transport: "spi"}}, BridgeConfig{}, false},
		{"tcp 缺少 endpoint", []BoardConfig{{Name: "a", Transport: TransportTCP}}, BridgeConfig{}, false},
		{"serial 缺少 bus", []BoardConfig{{Name: "a", Transport: TransportSerial}}, BridgeConfig{}, false},
		{"桥后端不存在", []BoardConfig{{Name: "a", Transport: TransportSim}}, BridgeConfig{Enable: true, Board: "b"}, false},
		{"桥后端存在", []BoardConfig{{Name: "a", Transport: TransportSim}}, BridgeConfig{Enable: true, Board: "a"}, true},
		{"桥后端为串口", []BoardConfig{{Name: "a", Transport: TransportSerial, Bus: "/dev/ttyUSB0"}}, BridgeConfig{Enable: true, Board: "a"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Boards: tc.boards, Bridge: tc.bridge}
			err := cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
