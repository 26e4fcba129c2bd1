package sbp

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeReply_Idle(t *testing.T) {
	rep, err := DecodeReply([]byte("N500"))
	require.NoError(t, err)
	assert.Equal(t, uint8(5), rep.Volume)
	assert.Equal(t, uint8(0), rep.Status)

	for ch, want := range []bool{true, false, false, false} {
		got, err := rep.ChannelActive(ch)
		require.NoError(t, err)
		assert.Equal(t, want, got, "channel %d", ch)
	}
}

func TestDecodeReply_AllBusy(t *testing.T) {
	rep, err := DecodeReply([]byte("N517"))
	require.NoError(t, err)
	assert.Equal(t, uint8(7), rep.Status)
	for ch := 0; ch <= MaxChannel; ch++ {
		got, err := rep.ChannelActive(ch)
		require.NoError(t, err)
		assert.True(t, got, "channel %d", ch)
	}
}

func TestDecodeReply_SingleBits(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  [4]bool
	}{
		{"仅通道1", "N31x", [4]bool{true, true, false, false}},
		{"仅通道2", "N32x", [4]bool{true, false, true, false}},
		{"仅通道3", "N34x", [4]bool{true, false, false, true}},
		{"通道1和3", "N35x", [4]bool{true, true, false, true}},
		{"高位不影响通道", "N38x", [4]bool{true, false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := DecodeReply([]byte(tt.reply))
			require.NoError(t, err)
			for ch := 0; ch <= MaxChannel; ch++ {
				got, err := rep.ChannelActive(ch)
				require.NoError(t, err)
				assert.Equal(t, tt.want[ch], got, "channel %d", ch)
			}
		})
	}
}

func TestDecodeReply_HighNibble(t *testing.T) {
	// '?' = '0'+15
	rep, err := DecodeReply([]byte("N9?0"))
	require.NoError(t, err)
	assert.Equal(t, uint8(9), rep.Volume)
	assert.Equal(t, uint8(15), rep.Status)
}

func TestDecodeReply_NotReady(t *testing.T) {
	_, err := DecodeReply([]byte("X000"))
	assert.True(t, errors.Is(err, ErrDeviceNotReady), "got %v", err)
	assert.Equal(t, ResultNotReady, Result(err))
}

func TestDecodeReply_Malformed(t *testing.T) {
	for _, raw := range []string{"", "N", "N50", "N5000", "NA00", "N:00", "N5@0", "N5/0"} {
		_, err := DecodeReply([]byte(raw))
		assert.True(t, errors.Is(err, ErrMalformedReply), "%q: got %v", raw, err)
	}
}

func TestStatusReport_InvalidChannel(t *testing.T) {
	rep := StatusReport{Volume: 5}
	_, err := rep.ChannelActive(4)
	assert.ErrorIs(t, err, ErrInvalidChannel)
}

func TestEncodeReply(t *testing.T) {
	assert.Equal(t, "N570", string(EncodeReply(MarkerNormal, 5, 7)))
	assert.Equal(t, "B9?0", string(EncodeReply('B', 12, 0xFF)))
}

func TestResult(t *testing.T) {
	assert.Equal(t, ResultOK, Result(nil))
	assert.Equal(t, ResultInvalidChannel, Result(channelError(9)))
	assert.Equal(t, ResultWriteFailed, Result(ErrTransportWriteFailed))
	assert.Equal(t, ResultReadFailed, Result(ErrTransportReadFailed))
	assert.Equal(t, ResultMalformed, Result(ErrMalformedReply))
	assert.Equal(t, ResultOther, Result(errors.New("boom")))
}
