package mpeg

import (
	"errors"

	"github.com/Ciantic/mpeg1audio/internal/binary"
)

const (
	// syncWindowSize is the chunk size used when scanning for sync bytes.
	syncWindowSize = 8192

	// maxFrameLength is the largest possible MPEG audio frame: MPEG-2.5
	// Layer II at 160 kbps / 8000 Hz with a padding slot.
	maxFrameLength = 2881

	// trailingTagTolerance is how close to the stream end a frame's
	// successor may fall before we accept the frame without a confirming
	// second header. Sized for an ID3v1 tag.
	trailingTagTolerance = 128
)

// ErrNoFrame reports that no confirmed frame header exists in the searched
// region. It is not fatal by itself; the engine maps it to NotMPEGAudioError
// only during initial synchronization.
var ErrNoFrame = errors.New("no confirmed frame header found")

// synchronizer locates confirmed frame headers in the stream. The sync
// pattern alone has a non-trivial false-positive probability in arbitrary
// binary data (ID3 tag payloads especially), so every candidate must be
// confirmed by a second valid, stream-compatible header one frame length
// ahead.
type synchronizer struct {
	cur *binary.Cursor
}

// next returns the first confirmed frame at or after from, never looking at
// or past end. The candidate search covers at most limit bytes (limit < 0
// means unbounded: scan to end). Returns ErrNoFrame when the region holds no
// confirmable header; transport failures propagate.
func (s *synchronizer) next(from, limit, end int64) (Frame, error) {
	if from < 0 {
		from = 0
	}
	if end > s.cur.Size() {
		end = s.cur.Size()
	}

	for base := from; base+4 <= end; {
		if limit >= 0 && base > from+limit {
			return Frame{}, ErrNoFrame
		}
		window, err := s.cur.Window(base, syncWindowSize, "frame sync window")
		if err != nil {
			return Frame{}, err
		}
		if len(window) < 4 {
			break
		}

		for i := 0; i+4 <= len(window); i++ {
			if window[i] != 0xFF {
				continue
			}
			off := base + int64(i)
			if limit >= 0 && off-from > limit {
				return Frame{}, ErrNoFrame
			}
			header, err := ParseHeader(window[i : i+4])
			if err != nil {
				continue
			}
			frame, ok, err := s.confirm(header, off, end)
			if err != nil {
				return Frame{}, err
			}
			if ok {
				return frame, nil
			}
		}

		// Overlap by 3 bytes so headers straddling the window boundary
		// are still seen.
		base += int64(len(window)) - 3
	}
	return Frame{}, ErrNoFrame
}

// confirm verifies that a decoded candidate at off is followed by another
// valid header of the same stream, or ends acceptably close to end.
func (s *synchronizer) confirm(header FrameHeader, off, end int64) (Frame, bool, error) {
	size := int64(header.FrameLength())
	if size == 0 {
		// Free format: the length is not derivable from the header, so
		// measure it as the distance to the next compatible header.
		measured, ok, err := s.findCompatible(header, off+4, end)
		if err != nil {
			return Frame{}, false, err
		}
		if ok {
			return Frame{Header: header, Offset: off, Size: measured - off}, true, nil
		}
		// Sole trailing free-format frame: take the rest of the stream.
		if end-off <= maxFrameLength+4 {
			return Frame{Header: header, Offset: off, Size: end - off}, true, nil
		}
		return Frame{}, false, nil
	}

	next := off + size
	if next+4 <= end {
		buf, err := s.cur.Window(next, 4, "frame confirmation")
		if err != nil {
			return Frame{}, false, err
		}
		second, err := ParseHeader(buf)
		if err == nil && header.compatible(second) {
			return Frame{Header: header, Offset: off, Size: size}, true, nil
		}
	}

	// No confirming successor: acceptable only if the frame ends at the
	// stream end or within the trailing-tag tolerance of it.
	if next <= end && end-next <= trailingTagTolerance {
		return Frame{Header: header, Offset: off, Size: size}, true, nil
	}
	return Frame{}, false, nil
}

// findCompatible scans forward for the next valid header compatible with h,
// returning its offset. Used to measure free-format frame lengths.
func (s *synchronizer) findCompatible(h FrameHeader, from, end int64) (int64, bool, error) {
	for base := from; base+4 <= end; {
		window, err := s.cur.Window(base, syncWindowSize, "free format length scan")
		if err != nil {
			return 0, false, err
		}
		if len(window) < 4 {
			break
		}
		for i := 0; i+4 <= len(window); i++ {
			if window[i] != 0xFF {
				continue
			}
			candidate, err := ParseHeader(window[i : i+4])
			if err == nil && h.compatible(candidate) {
				return base + int64(i), true, nil
			}
		}
		base += int64(len(window)) - 3
	}
	return 0, false, nil
}

// follow returns the frame expected immediately after prev. ErrNoFrame means
// the stream (bounded by end) has no room for another header; a header
// decode error means the bytes at the expected offset are not a frame, which
// the engine treats as a corrupt region and resolves by resynchronizing.
func (s *synchronizer) follow(prev Frame, end int64) (Frame, error) {
	next := prev.End()
	if next+4 > end {
		return Frame{}, ErrNoFrame
	}

	buf := make([]byte, 4)
	if err := s.cur.ReadAt(buf, next, "next frame header"); err != nil {
		return Frame{}, err
	}
	header, err := ParseHeader(buf)
	if err != nil {
		return Frame{}, err
	}
	if !prev.Header.compatible(header) {
		return Frame{}, ErrBadSync
	}

	size := int64(header.FrameLength())
	if size == 0 {
		measured, ok, err := s.findCompatible(header, next+4, end)
		if err != nil {
			return Frame{}, err
		}
		if ok {
			size = measured - next
		} else {
			size = end - next
		}
	}
	return Frame{Header: header, Offset: next, Size: size}, nil
}
