package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/soundboard-gateway/internal/protocol/sbp"
	"github.com/taoyao-code/soundboard-gateway/internal/session"
	"github.com/taoyao-code/soundboard-gateway/internal/soundboard"
	"github.com/taoyao-code/soundboard-gateway/internal/storage/pg"
)

type memSink struct {
	mu     sync.Mutex
	cmds   []pg.CmdLog
	status int
}

func (s *memSink) InsertCmdLog(ctx context.Context, l pg.CmdLog) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, l)
	return uuid.New(), nil
}

func (s *memSink) InsertStatus(ctx context.Context, board string, volume, status uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status++
	return nil
}

func (s *memSink) snapshot() ([]pg.CmdLog, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]pg.CmdLog(nil), s.cmds...), s.status
}

func TestRecorder_PersistsEvents(t *testing.T) {
	sink := &memSink{}
	store := session.NewMemoryStore()
	r := New(sink, store, nil, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	h := r.Hooks()
	h.OnCommand(soundboard.CommandEvent{Board: "stage", Kind: sbp.KindPlay, Channel: 1, Frame: []byte("T1 a.wav")})
	h.OnCommand(soundboard.CommandEvent{Board: "stage", Kind: sbp.KindVolumeUp, Channel: -1, Frame: []byte("V+"), Err: sbp.ErrTransportWriteFailed})
	h.OnStatus(soundboard.StatusEvent{Board: "stage", Report: sbp.StatusReport{Volume: 6, Status: 1}})

	require.Eventually(t, func() bool {
		cmds, st := sink.snapshot()
		return len(cmds) == 2 && st == 1
	}, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	cmds, _ := sink.snapshot()
	require.NotNil(t, cmds[0].Channel)
	assert.Equal(t, 1, *cmds[0].Channel)
	assert.True(t, cmds[0].Success)
	assert.Nil(t, cmds[1].Channel)
	assert.False(t, cmds[1].Success)
	assert.Contains(t, cmds[1].Error, "transport write failed")

	snap, ok, err := store.Load(context.Background(), "stage")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, snap.Online)
	assert.Equal(t, uint8(6), snap.Volume)
}

func TestRecorder_FailedStatusKeepsLastVolume(t *testing.T) {
	store := session.NewMemoryStore()
	r := New(nil, store, nil, 4)

	r.recordStatus(context.Background(), soundboard.StatusEvent{Board: "b", Report: sbp.StatusReport{Volume: 8, Status: 2}}, time.Now())
	r.recordStatus(context.Background(), soundboard.StatusEvent{Board: "b", Err: errors.New("device not ready")}, time.Now())

	snap, ok, err := store.Load(context.Background(), "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, snap.Online)
	assert.Equal(t, uint8(8), snap.Volume)
	assert.Equal(t, "device not ready", snap.LastError)
}

func TestRecorder_DropsWhenFull(t *testing.T) {
	r := New(nil, nil, nil, 1)
	h := r.Hooks()
	h.OnCommand(soundboard.CommandEvent{Board: "a"})
	h.OnCommand(soundboard.CommandEvent{Board: "a"})
	h.OnCommand(soundboard.CommandEvent{Board: "a"})
	assert.Equal(t, int64(2), r.Dropped())
}
