package mpeg

import (
	binutil "github.com/Ciantic/mpeg1audio/internal/binary"
)

// Tag boundary detection. The engine only needs to know where the audio
// payload starts and ends; tag contents are an external collaborator's
// concern.

// id3v1Length is the fixed size of an ID3v1 footer tag.
const id3v1Length = 128

// id3v2TagSize returns the total size (header included) of an ID3v2 tag at
// the start of the stream, or 0 when none is present.
func id3v2TagSize(cur *binutil.Cursor) (int64, error) {
	buf, err := cur.Window(0, 10, "ID3v2 header")
	if err != nil {
		return 0, err
	}
	if len(buf) < 10 || string(buf[:3]) != "ID3" {
		return 0, nil
	}

	size := int64(10 + decodeSynchsafe(buf[6:10]))
	if buf[5]&0x10 != 0 {
		// Footer flag: a 10-byte footer mirrors the header at the end of
		// the tag (ID3v2.4).
		size += 10
	}
	return size, nil
}

// hasID3v1 reports whether the stream ends in an ID3v1 tag.
func hasID3v1(cur *binutil.Cursor) (bool, error) {
	if cur.Size() < id3v1Length {
		return false, nil
	}
	buf, err := cur.Window(cur.Size()-id3v1Length, 3, "ID3v1 magic")
	if err != nil {
		return false, err
	}
	return len(buf) == 3 && buf[0] == 'T' && buf[1] == 'A' && buf[2] == 'G', nil
}

// decodeSynchsafe decodes a 4-byte synchsafe integer (7 bits per byte).
func decodeSynchsafe(b []byte) uint32 {
	return uint32(b[0]&0x7F)<<21 | uint32(b[1]&0x7F)<<14 | uint32(b[2]&0x7F)<<7 | uint32(b[3]&0x7F)
}
