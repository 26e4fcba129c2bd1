package sbp

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodePlay_Header(t *testing.T) {
	for ch := 0; ch <= MaxChannel; ch++ {
		for _, repeat := range []bool{false, true} {
			frame, err := EncodePlay("x.wav", ch, repeat)
			if err != nil {
				t.Fatalf("ch=%d repeat=%v: %v", ch, repeat, err)
			}
			want := byte('T')
			if repeat {
				want = 'R'
			}
			if frame[0] != want {
				t.Fatalf("op: got %q want %q", frame[0], want)
			}
			if frame[1] != byte('0'+ch) {
				t.Fatalf("channel: got %q", frame[1])
			}
			if frame[2] != ' ' {
				t.Fatalf("separator: got %q", frame[2])
			}
		}
	}
}

func TestEncodePlay_Exact(t *testing.T) {
	frame, err := EncodePlay("a.wav", 1, false)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(frame) != "T1 a.wav" {
		t.Fatalf("got %q", frame)
	}

	frame, err = EncodePlay("loop.mp3", 3, true)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(frame) != "R3 loop.mp3" {
		t.Fatalf("got %q", frame)
	}
}

func TestEncodePlay_Truncate(t *testing.T) {
	long := strings.Repeat("a", 300)
	frame, err := EncodePlay(long, 0, false)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(frame) != MaxPlayFrameLen {
		t.Fatalf("frame len %d, want %d", len(frame), MaxPlayFrameLen)
	}
	if string(frame[3:]) != long[:MaxFilenameLen] {
		t.Fatalf("filename not truncated to %d bytes", MaxFilenameLen)
	}

	exact := strings.Repeat("b", MaxFilenameLen)
	frame, _ = EncodePlay(exact, 0, false)
	if string(frame[3:]) != exact {
		t.Fatalf("253-byte filename must pass through")
	}

	frame, _ = EncodePlay("", 2, false)
	if string(frame) != "T2 " {
		t.Fatalf("empty filename: got %q", frame)
	}
}

func TestEncode_InvalidChannel(t *testing.T) {
	for _, ch := range []int{-1, 4, 9, 100} {
		if _, err := EncodePlay("a.wav", ch, false); !errors.Is(err, ErrInvalidChannel) {
			t.Fatalf("play ch=%d: %v", ch, err)
		}
		if _, err := EncodeStop(ch); !errors.Is(err, ErrInvalidChannel) {
			t.Fatalf("stop ch=%d: %v", ch, err)
		}
		if _, err := EncodeQueryStatus(ch); !errors.Is(err, ErrInvalidChannel) {
			t.Fatalf("query ch=%d: %v", ch, err)
		}
	}
}

func TestEncodeStop(t *testing.T) {
	frame, err := EncodeStop(2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if string(frame) != "S2" {
		t.Fatalf("got %q", frame)
	}
}

func TestEncodeSetVolume_Clamp(t *testing.T) {
	cases := []struct {
		level int
		want  string
	}{
		{-5, "V0"},
		{0, "V0"},
		{4, "V4"},
		{9, "V9"},
		{15, "V9"},
	}
	for _, c := range cases {
		if got := string(EncodeSetVolume(c.level)); got != c.want {
			t.Fatalf("level=%d: got %q want %q", c.level, got, c.want)
		}
	}
}

func TestEncodeVolumeSteps(t *testing.T) {
	if got := string(EncodeVolumeUp()); got != "V+" {
		t.Fatalf("up: %q", got)
	}
	if got := string(EncodeVolumeDown()); got != "V-" {
		t.Fatalf("down: %q", got)
	}
}

func TestEncodeQueryStatus_NoFrame(t *testing.T) {
	frame, err := EncodeQueryStatus(3)
	if err != nil || frame != nil {
		t.Fatalf("frame=%v err=%v", frame, err)
	}
}

func TestEncode_Dispatch(t *testing.T) {
	cases := []struct {
		cmd  Command
		want string
	}{
		{Play{Filename: "a.wav", Channel: 1}, "T1 a.wav"},
		{&Play{Filename: "b.wav", Channel: 0, Repeat: true}, "R0 b.wav"},
		{Stop{Channel: 2}, "S2"},
		{SetVolume{Level: 7}, "V7"},
		{VolumeUp{}, "V+"},
		{VolumeDown{}, "V-"},
		{QueryStatus{Channel: 1}, ""},
	}
	for _, c := range cases {
		frame, err := Encode(c.cmd)
		if err != nil {
			t.Fatalf("%s: %v", c.cmd.Kind(), err)
		}
		if string(frame) != c.want {
			t.Fatalf("%s: got %q want %q", c.cmd.Kind(), frame, c.want)
		}
	}

	if _, err := Encode(Stop{Channel: 7}); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("expected invalid channel, got %v", err)
	}
}

func TestNewCommands_ValidateChannel(t *testing.T) {
	if _, err := NewPlay("a", 4, false); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("play: %v", err)
	}
	if _, err := NewStop(-1); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("stop: %v", err)
	}
	if _, err := NewQueryStatus(5); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("query: %v", err)
	}
	p, err := NewPlay("a", 3, true)
	if err != nil || p.Channel != 3 || !p.Repeat {
		t.Fatalf("unexpected: %+v %v", p, err)
	}
}
