package mpeg

import (
	"github.com/Ciantic/mpeg1audio/internal/binary"
)

// VBRKind tags the variant of a VBRInfo.
type VBRKind uint8

const (
	VBRAbsent VBRKind = iota
	VBRXing
	VBRVBRI
)

func (k VBRKind) String() string {
	switch k {
	case VBRXing:
		return "Xing"
	case VBRVBRI:
		return "VBRI"
	}
	return "absent"
}

// VBRInfo is the decoded Xing or VBRI side header from the first frame, or
// the absent variant. It is detected exactly once, from the first valid
// frame, and never re-derived.
type VBRInfo struct {
	Kind   VBRKind
	Offset int64 // stream offset of the signature

	// InfoTag is set when a Xing-layout header is signed "Info", which
	// encoders write on CBR streams. The declared counts are still valid.
	InfoTag bool

	// Declared totals; -1 when the header does not declare them.
	FrameCount int64
	ByteCount  int64
	Quality    int64

	// TOC is the seek table: 100 single-byte entries for Xing, or
	// TOCEntries entries of TOCEntrySize bytes for VBRI.
	TOC []byte

	// VBRI-only fields.
	VBRIVersion       uint16
	Delay             uint16
	TOCEntries        int
	TOCScale          int
	TOCEntrySize      int
	FramesPerTOCEntry int
}

// Absent reports whether no VBR side header was found.
func (v VBRInfo) Absent() bool {
	return v.Kind == VBRAbsent
}

// SeekPoint estimates the stream byte offset of the given
// percentage-of-duration using the Xing seek table, without any scanning.
// streamSize is the audio payload size in bytes. Returns -1 when no usable
// table is present.
func (v VBRInfo) SeekPoint(percent float64, streamSize int64) int64 {
	if v.Kind != VBRXing || len(v.TOC) != 100 || streamSize <= 0 {
		return -1
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	// Interpolate between adjacent table entries; entries are fractions of
	// the stream scaled to 0..255.
	idx := int(percent)
	entry := func(i int) float64 {
		if i > 99 {
			return 256
		}
		return float64(v.TOC[i])
	}
	a := entry(idx)
	b := entry(idx + 1)
	frac := percent - float64(idx)
	scaled := a + (b-a)*frac
	return int64(scaled / 256 * float64(streamSize))
}

// detectVBR inspects the payload of the first valid frame for a Xing/Info or
// VBRI signature. Absence of both is the normal CBR case, not an error; only
// transport failures propagate.
func detectVBR(cur *binary.Cursor, first Frame) (VBRInfo, error) {
	info, found, err := parseXing(cur, first)
	if err != nil || found {
		return info, err
	}
	info, found, err = parseVBRI(cur, first)
	if err != nil || found {
		return info, err
	}
	return VBRInfo{Kind: VBRAbsent, FrameCount: -1, ByteCount: -1, Quality: -1}, nil
}
