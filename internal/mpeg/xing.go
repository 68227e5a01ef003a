package mpeg

import (
	"encoding/binary"

	binutil "github.com/Ciantic/mpeg1audio/internal/binary"
)

// Xing header flag bits, in field order.
const (
	xingHasFrames  = 0x1
	xingHasBytes   = 0x2
	xingHasTOC     = 0x4
	xingHasQuality = 0x8
)

// parseXing decodes a Xing or Info header from the first frame's payload.
// The header sits after the Layer III side information (and the CRC when the
// protection bit is set), so its offset depends on version and channel mode.
func parseXing(cur *binutil.Cursor, first Frame) (VBRInfo, bool, error) {
	if first.Header.Layer != LayerIII {
		return VBRInfo{}, false, nil
	}

	off := first.Offset + 4
	if first.Header.Protected {
		off += 2
	}
	off += int64(first.Header.SideInfoLength())

	intro, err := cur.Window(off, 8, "Xing signature")
	if err != nil {
		return VBRInfo{}, false, err
	}
	if len(intro) < 8 {
		return VBRInfo{}, false, nil
	}
	sig := string(intro[:4])
	if sig != "Xing" && sig != "Info" {
		return VBRInfo{}, false, nil
	}
	flags := binary.BigEndian.Uint32(intro[4:8])

	fieldsSize := 0
	if flags&xingHasFrames != 0 {
		fieldsSize += 4
	}
	if flags&xingHasBytes != 0 {
		fieldsSize += 4
	}
	if flags&xingHasTOC != 0 {
		fieldsSize += 100
	}
	if flags&xingHasQuality != 0 {
		fieldsSize += 4
	}

	fields, err := cur.Window(off+8, fieldsSize, "Xing fields")
	if err != nil {
		return VBRInfo{}, false, err
	}
	if len(fields) < fieldsSize {
		// Signature inside a truncated first frame; nothing trustworthy.
		return VBRInfo{}, false, nil
	}

	info := VBRInfo{
		Kind:       VBRXing,
		Offset:     off,
		InfoTag:    sig == "Info",
		FrameCount: -1,
		ByteCount:  -1,
		Quality:    -1,
	}
	pos := 0
	if flags&xingHasFrames != 0 {
		info.FrameCount = int64(binary.BigEndian.Uint32(fields[pos : pos+4]))
		pos += 4
	}
	if flags&xingHasBytes != 0 {
		info.ByteCount = int64(binary.BigEndian.Uint32(fields[pos : pos+4]))
		pos += 4
	}
	if flags&xingHasTOC != 0 {
		info.TOC = append([]byte(nil), fields[pos:pos+100]...)
		pos += 100
	}
	if flags&xingHasQuality != 0 {
		info.Quality = int64(binary.BigEndian.Uint32(fields[pos : pos+4]))
	}
	return info, true, nil
}
