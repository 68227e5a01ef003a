package mpeg1audio_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Ciantic/mpeg1audio"
)

// cbrFrames builds a 128 kbps / 44100 Hz MPEG-1 Layer III stream of n
// frames, padding frames the way a real encoder does so the average frame
// size matches the bitrate exactly.
func cbrFrames(n int) []byte {
	var out []byte
	acc := 0
	for i := 0; i < n; i++ {
		acc += 144*128000 - 417*44100
		length := 417
		b2 := byte(0x90)
		if acc >= 44100 {
			acc -= 44100
			length = 418
			b2 = 0x92
		}
		f := make([]byte, length)
		f[0], f[1], f[2], f[3] = 0xFF, 0xFB, b2, 0x00
		out = append(out, f...)
	}
	return out
}

func writeTestFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write test file: %v", err)
	}
	return path
}

func TestOpen(t *testing.T) {
	path := writeTestFile(t, "cbr.mp3", cbrFrames(200))

	m, err := mpeg1audio.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer m.Close()

	if m.Path != path {
		t.Errorf("Path = %q, want %q", m.Path, path)
	}
	if m.State() != mpeg1audio.BeginningParsed {
		t.Errorf("State = %s, want beginning parsed", m.State())
	}
	if m.Bitrate() != 128 {
		t.Errorf("Bitrate = %d, want 128", m.Bitrate())
	}
	if m.SampleRate() != 44100 {
		t.Errorf("SampleRate = %d, want 44100", m.SampleRate())
	}
	if m.Channels() != 2 {
		t.Errorf("Channels = %d, want 2", m.Channels())
	}
	if m.SamplesPerFrame() != 1152 {
		t.Errorf("SamplesPerFrame = %d, want 1152", m.SamplesPerFrame())
	}
	if m.IsVBR() {
		t.Error("IsVBR = true for a CBR stream")
	}

	d, err := m.Duration(mpeg1audio.NoFullScan)
	if err != nil {
		t.Fatalf("Duration failed: %v", err)
	}
	want := time.Duration(int64(200) * 1152 * int64(time.Second) / 44100)
	diff := d - want
	if diff < 0 {
		diff = -diff
	}
	if diff > 30*time.Millisecond {
		t.Errorf("Duration = %s, want about %s", d, want)
	}
}

func TestOpenNotMPEG(t *testing.T) {
	path := writeTestFile(t, "noise.bin", bytes.Repeat([]byte{0xAB, 0xCD}, 4096))

	_, err := mpeg1audio.Open(path)
	var notMPEG *mpeg1audio.NotMPEGAudioError
	if !errors.As(err, &notMPEG) {
		t.Errorf("Open = %v, want NotMPEGAudioError", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := mpeg1audio.Open(filepath.Join(t.TempDir(), "missing.mp3"))
	if err == nil {
		t.Fatal("Open succeeded on a missing file")
	}
}

func TestOpenReader(t *testing.T) {
	m, err := mpeg1audio.OpenReader(bytes.NewReader(cbrFrames(50)), "in-memory")
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer m.Close()

	// CBR streams answer from the size estimate without a full scan.
	fc, err := m.FrameCount(mpeg1audio.AllowFullScan)
	if err != nil {
		t.Fatalf("FrameCount failed: %v", err)
	}
	if fc != 50 {
		t.Errorf("FrameCount = %d, want 50", fc)
	}
	if m.State() != mpeg1audio.EndParsed {
		t.Errorf("State = %s, want end parsed (estimate needs no scan)", m.State())
	}

	if err := m.ParseAll(); err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	if m.State() != mpeg1audio.AllFramesParsed {
		t.Errorf("State = %s, want all frames parsed", m.State())
	}
}

func TestScanPolicy(t *testing.T) {
	// Free-format frames: no fast path exists for duration.
	frame := make([]byte, 300)
	frame[0], frame[1], frame[2], frame[3] = 0xFF, 0xFB, 0x00, 0x00

	m, err := mpeg1audio.OpenReader(bytes.NewReader(bytes.Repeat(frame, 10)), "free")
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer m.Close()

	if m.Bitrate() != mpeg1audio.FreeFormat {
		t.Errorf("Bitrate = %d, want FreeFormat", m.Bitrate())
	}

	if _, err := m.Duration(mpeg1audio.NoFullScan); !errors.Is(err, mpeg1audio.ErrScanRequired) {
		t.Errorf("Duration(NoFullScan) = %v, want ErrScanRequired", err)
	}

	d, err := m.Duration(mpeg1audio.AllowFullScan)
	if err != nil {
		t.Fatalf("Duration(AllowFullScan) failed: %v", err)
	}
	want := time.Duration(int64(10) * 1152 * int64(time.Second) / 44100)
	if d < want-time.Millisecond || d > want+time.Millisecond {
		t.Errorf("Duration = %s, want %s", d, want)
	}
}

func TestParseAll(t *testing.T) {
	m, err := mpeg1audio.OpenReader(bytes.NewReader(cbrFrames(100)), "exact")
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer m.Close()

	if err := m.ParseAll(); err != nil {
		t.Fatalf("ParseAll failed: %v", err)
	}
	if m.State() != mpeg1audio.AllFramesParsed {
		t.Errorf("State = %s, want all frames parsed", m.State())
	}

	fc, err := m.FrameCount(mpeg1audio.NoFullScan)
	if err != nil {
		t.Fatalf("FrameCount after ParseAll failed: %v", err)
	}
	if fc != 100 {
		t.Errorf("FrameCount = %d, want 100", fc)
	}
	sc, _ := m.SampleCount(mpeg1audio.NoFullScan)
	if sc != 100*1152 {
		t.Errorf("SampleCount = %d, want %d", sc, 100*1152)
	}
	ab, _ := m.AverageBitrate(mpeg1audio.NoFullScan)
	if ab < 127 || ab > 129 {
		t.Errorf("AverageBitrate = %f, want about 128", ab)
	}
}

func TestOpenOptions(t *testing.T) {
	path := writeTestFile(t, "short.mp3", append(make([]byte, 2000), cbrFrames(20)...))

	// A tight lookahead must not reach the frames behind the junk prefix.
	_, err := mpeg1audio.Open(path,
		mpeg1audio.WithMaxLookahead(500),
		mpeg1audio.WithoutStreamProbe(),
	)
	var notMPEG *mpeg1audio.NotMPEGAudioError
	if !errors.As(err, &notMPEG) {
		t.Errorf("Open with tight lookahead = %v, want NotMPEGAudioError", err)
	}

	// A known begin offset skips the junk entirely.
	m, err := mpeg1audio.Open(path, mpeg1audio.WithBeginOffset(2000))
	if err != nil {
		t.Fatalf("Open with begin offset failed: %v", err)
	}
	defer m.Close()
	if m.Header().SampleRate != 44100 {
		t.Errorf("SampleRate = %d, want 44100", m.Header().SampleRate)
	}
}

func TestOpenMany(t *testing.T) {
	paths := []string{
		writeTestFile(t, "a.mp3", cbrFrames(30)),
		writeTestFile(t, "b.mp3", cbrFrames(40)),
		writeTestFile(t, "c.mp3", cbrFrames(50)),
	}

	files, err := mpeg1audio.OpenMany(context.Background(), paths...)
	if err != nil {
		t.Fatalf("OpenMany failed: %v", err)
	}
	defer func() {
		for _, m := range files {
			m.Close()
		}
	}()

	if len(files) != 3 {
		t.Fatalf("got %d results, want 3", len(files))
	}
	for i, m := range files {
		if m.Path != paths[i] {
			t.Errorf("result %d is %q, want %q (order must match input)", i, m.Path, paths[i])
		}
	}
}

func TestOpenManyFailureClosesAll(t *testing.T) {
	paths := []string{
		writeTestFile(t, "good.mp3", cbrFrames(30)),
		filepath.Join(t.TempDir(), "missing.mp3"),
	}

	files, err := mpeg1audio.OpenMany(context.Background(), paths...)
	if err == nil {
		t.Fatal("OpenMany succeeded with a missing file")
	}
	if files != nil {
		t.Errorf("got %d results on failure, want nil", len(files))
	}
}

func TestVersionNames(t *testing.T) {
	// The library version string and the MPEG version enum are distinct
	// exported names.
	if mpeg1audio.GetVersion() != mpeg1audio.Version {
		t.Errorf("GetVersion() = %q, want %q", mpeg1audio.GetVersion(), mpeg1audio.Version)
	}
	var v mpeg1audio.MPEGVersion = mpeg1audio.MPEG1
	if v.String() != "1" {
		t.Errorf("MPEG1.String() = %q, want %q", v.String(), "1")
	}
}

func TestOpenContextCancelled(t *testing.T) {
	path := writeTestFile(t, "c.mp3", cbrFrames(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := mpeg1audio.OpenContext(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("OpenContext = %v, want context.Canceled", err)
	}
}
