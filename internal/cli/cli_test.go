package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRun_SingleCommands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"play", []string{"play", "a.wav", "-c", "1"}, []string{"sbctl play ch=1", "result=ok"}},
		{"play repeat", []string{"--repeat", "play", "loop.wav"}, []string{"result=ok"}},
		{"stop", []string{"stop", "--channel", "2"}, []string{"sbctl stop ch=2", "result=ok"}},
		{"volume clamps", []string{"volume", "12"}, []string{"volume=9"}},
		{"volume up", []string{"up"}, []string{"volume=6"}},
		{"volume down", []string{"down"}, []string{"volume=4"}},
		{"status any", []string{"status"}, []string{"active=true"}},
		{"status idle channel", []string{"status", "-c", "3"}, []string{"active=false"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := run(t, tt.args...)
			require.Equal(t, ExitOK, code, errOut)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestRun_UsageErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"play"},
		{"volume"},
		{"volume", "loud"},
		{"stop", "extra"},
		{"dance"},
		{"run"},
		{"--no-such-flag", "up"},
	}
	for _, args := range cases {
		code, _, _ := run(t, args...)
		assert.Equal(t, ExitUsage, code, "args=%v", args)
	}
}

func TestRun_Help(t *testing.T) {
	code, _, errOut := run(t, "--help")
	assert.Equal(t, ExitOK, code)
	assert.Contains(t, errOut, "usage: sbctl")
	assert.Contains(t, errOut, "(0 = device responded)")
}

func TestRun_OperationErrors(t *testing.T) {
	code, _, errOut := run(t, "stop", "-c", "7")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "invalid channel")

	code, _, _ = run(t, "--transport", "carrier-pigeon", "up")
	assert.Equal(t, ExitError, code)

	code, _, _ = run(t, "run", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, ExitError, code)
}

func TestRun_CueScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cue.yaml")
	script := `name: smoke
steps:
  - op: play
    file: bgm.wav
    channel: 1
    wait: 10ms
  - op: status
    channel: 1
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o644))

	code, out, errOut := run(t, "run", path)
	require.Equal(t, ExitOK, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "play ch=1 result=ok")
	assert.Contains(t, lines[1], "active=true")
}

func TestRun_VerboseDumpsOutcome(t *testing.T) {
	code, out, _ := run(t, "-v", "volume", "3")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Outcome")
	assert.Contains(t, out, "Volume:")
}
