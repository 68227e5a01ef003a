package mpeg

import (
	"bytes"
	"errors"
	"testing"

	binutil "github.com/Ciantic/mpeg1audio/internal/binary"
)

// testFrame builds one MPEG-1 Layer III 128 kbps / 44100 Hz frame: 417
// bytes, or 418 with the padding slot.
func testFrame(padding bool) []byte {
	b2 := byte(0x90)
	length := 417
	if padding {
		b2 = 0x92
		length = 418
	}
	f := make([]byte, length)
	f[0], f[1], f[2], f[3] = 0xFF, 0xFB, b2, 0x00
	return f
}

// cbrStream builds a 128 kbps / 44100 Hz stream of n frames with the padding
// discipline a real encoder uses: a fractional-slot accumulator pads a frame
// whenever a whole slot of remainder has built up, so the average frame size
// is exactly 144 * 128000 / 44100 bytes.
func cbrStream(n int) []byte {
	var out []byte
	acc := 0
	for i := 0; i < n; i++ {
		acc += 144*128000 - 417*44100
		pad := false
		if acc >= 44100 {
			pad = true
			acc -= 44100
		}
		out = append(out, testFrame(pad)...)
	}
	return out
}

func syncOver(t *testing.T, data []byte) *synchronizer {
	t.Helper()
	cur, err := binutil.NewCursor(bytes.NewReader(data), "test")
	if err != nil {
		t.Fatalf("NewCursor failed: %v", err)
	}
	return &synchronizer{cur: cur}
}

func TestSyncNextAtStart(t *testing.T) {
	data := cbrStream(3)
	s := syncOver(t, data)

	f, err := s.next(0, -1, int64(len(data)))
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if f.Offset != 0 {
		t.Errorf("Offset = %d, want 0", f.Offset)
	}
	if f.Size != 417 {
		t.Errorf("Size = %d, want 417", f.Size)
	}
}

func TestSyncNextSkipsGarbagePrefix(t *testing.T) {
	garbage := bytes.Repeat([]byte{0xDE, 0xAD}, 150)
	data := append(garbage, cbrStream(3)...)
	s := syncOver(t, data)

	f, err := s.next(0, -1, int64(len(data)))
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if f.Offset != int64(len(garbage)) {
		t.Errorf("Offset = %d, want %d", f.Offset, len(garbage))
	}
}

func TestSyncNextRejectsFalsePositive(t *testing.T) {
	// A lone valid-looking header with no confirming successor, then real
	// frames further in.
	var data []byte
	data = append(data, 0xFF, 0xFB, 0x90, 0x00)
	data = append(data, make([]byte, 600)...)
	realStart := len(data)
	data = append(data, cbrStream(3)...)
	s := syncOver(t, data)

	f, err := s.next(0, -1, int64(len(data)))
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if f.Offset != int64(realStart) {
		t.Errorf("Offset = %d, want %d (unconfirmed header must be skipped)", f.Offset, realStart)
	}
}

func TestSyncNextHonorsLimit(t *testing.T) {
	data := append(make([]byte, 1000), cbrStream(3)...)
	s := syncOver(t, data)

	_, err := s.next(0, 500, int64(len(data)))
	if !errors.Is(err, ErrNoFrame) {
		t.Errorf("next with tight limit = %v, want ErrNoFrame", err)
	}

	f, err := s.next(0, 1000, int64(len(data)))
	if err != nil {
		t.Fatalf("next with wide limit failed: %v", err)
	}
	if f.Offset != 1000 {
		t.Errorf("Offset = %d, want 1000", f.Offset)
	}
}

func TestSyncFollowWalksFrames(t *testing.T) {
	data := cbrStream(5)
	s := syncOver(t, data)
	end := int64(len(data))

	f, err := s.next(0, -1, end)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}

	count := 1
	for {
		nf, err := s.follow(f, end)
		if errors.Is(err, ErrNoFrame) {
			break
		}
		if err != nil {
			t.Fatalf("follow failed at frame %d: %v", count, err)
		}
		if nf.Offset != f.End() {
			t.Errorf("frame %d Offset = %d, want %d", count+1, nf.Offset, f.End())
		}
		f = nf
		count++
	}

	if count != 5 {
		t.Errorf("walked %d frames, want 5", count)
	}
	if f.End() != end {
		t.Errorf("last frame ends at %d, want %d", f.End(), end)
	}
}

func TestSyncConfirmWithinTrailingTolerance(t *testing.T) {
	// A single frame followed by a 100-byte trailer: no room for a second
	// header, close enough to the end to accept.
	data := append(cbrStream(1), make([]byte, 100)...)
	s := syncOver(t, data)

	f, err := s.next(0, -1, int64(len(data)))
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if f.Offset != 0 || f.Size != 417 {
		t.Errorf("frame = {%d %d}, want {0 417}", f.Offset, f.Size)
	}
}

func TestSyncFreeFormatMeasured(t *testing.T) {
	// Free-format frames: size not derivable from the header, measured as
	// the distance to the next compatible header.
	frame := make([]byte, 300)
	frame[0], frame[1], frame[2], frame[3] = 0xFF, 0xFB, 0x00, 0x00
	data := bytes.Repeat(frame, 4)
	s := syncOver(t, data)
	end := int64(len(data))

	f, err := s.next(0, -1, end)
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if !f.Header.FreeFormat() {
		t.Fatal("expected a free-format frame")
	}
	if f.Size != 300 {
		t.Errorf("measured Size = %d, want 300", f.Size)
	}

	// The sole trailing frame takes the rest of the stream.
	last := f
	for {
		nf, err := s.follow(last, end)
		if errors.Is(err, ErrNoFrame) {
			break
		}
		if err != nil {
			t.Fatalf("follow failed: %v", err)
		}
		last = nf
	}
	if last.Offset != 900 || last.Size != 300 {
		t.Errorf("last frame = {%d %d}, want {900 300}", last.Offset, last.Size)
	}
}
