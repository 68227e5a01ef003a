package mpeg

import (
	"encoding/binary"

	binutil "github.com/Ciantic/mpeg1audio/internal/binary"
)

// vbriOffset is the fixed distance from the frame start to the VBRI
// signature: 4 header bytes plus 32. Unlike Xing, VBRI ignores the side
// information size; the Fraunhofer encoder always writes it there.
const vbriOffset = 4 + 32

// parseVBRI decodes a Fraunhofer VBRI header from the first frame's payload.
func parseVBRI(cur *binutil.Cursor, first Frame) (VBRInfo, bool, error) {
	off := first.Offset + vbriOffset

	buf, err := cur.Window(off, 26, "VBRI header")
	if err != nil {
		return VBRInfo{}, false, err
	}
	if len(buf) < 26 || string(buf[:4]) != "VBRI" {
		return VBRInfo{}, false, nil
	}

	info := VBRInfo{
		Kind:        VBRVBRI,
		Offset:      off,
		VBRIVersion: binary.BigEndian.Uint16(buf[4:6]),
		Delay:       binary.BigEndian.Uint16(buf[6:8]),
		Quality:     int64(binary.BigEndian.Uint16(buf[8:10])),
		ByteCount:   int64(binary.BigEndian.Uint32(buf[10:14])),
		FrameCount:  int64(binary.BigEndian.Uint32(buf[14:18])),

		TOCEntries:        int(binary.BigEndian.Uint16(buf[18:20])),
		TOCScale:          int(binary.BigEndian.Uint16(buf[20:22])),
		TOCEntrySize:      int(binary.BigEndian.Uint16(buf[22:24])),
		FramesPerTOCEntry: int(binary.BigEndian.Uint16(buf[24:26])),
	}

	// The seek table follows the fixed fields. A truncated table is dropped
	// rather than kept partially; the counts above remain usable.
	tocSize := info.TOCEntries * info.TOCEntrySize
	if tocSize > 0 && tocSize <= maxFrameLength {
		toc, err := cur.Window(off+26, tocSize, "VBRI seek table")
		if err != nil {
			return VBRInfo{}, false, err
		}
		if len(toc) == tocSize {
			info.TOC = toc
		}
	}
	return info, true, nil
}
