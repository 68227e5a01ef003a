// Package binary provides a bounds-checked byte cursor over seekable streams.
package binary

import (
	"encoding/binary"
	"io"

	"github.com/Ciantic/mpeg1audio/internal/types"
)

// Cursor wraps an io.ReadSeeker with bounds checking, total-size tracking and
// helpful error messages. It is the only component that touches the stream;
// everything above it works in offsets.
//
// A Cursor is exclusively owned by one metadata engine and is not safe for
// concurrent use.
type Cursor struct {
	rs   io.ReadSeeker
	path string
	size int64
}

// NewCursor creates a Cursor over rs, discovering the total stream size by
// seeking to the end and back.
func NewCursor(rs io.ReadSeeker, path string) (*Cursor, error) {
	size, err := rs.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &types.TransportError{Path: path, What: "stream size", Err: err}
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, &types.TransportError{Path: path, What: "stream start", Err: err}
	}
	return &Cursor{rs: rs, path: path, size: size}, nil
}

// Path returns the path associated with this cursor.
func (c *Cursor) Path() string {
	return c.path
}

// Size returns the total stream size in bytes.
func (c *Cursor) Size() int64 {
	return c.size
}

// ReadAt fills b from the given offset, with context for error messages.
// Reads that would cross the end of the stream fail with OutOfBoundsError
// before any I/O happens.
func (c *Cursor) ReadAt(b []byte, off int64, what string) error {
	if off < 0 || off >= c.size || off+int64(len(b)) > c.size {
		return &types.OutOfBoundsError{
			Path:   c.path,
			What:   what,
			Offset: off,
			Length: len(b),
			Size:   c.size,
		}
	}

	if _, err := c.rs.Seek(off, io.SeekStart); err != nil {
		return &types.TransportError{Path: c.path, What: what, Offset: off, Err: err}
	}
	if _, err := io.ReadFull(c.rs, b); err != nil {
		return &types.TransportError{Path: c.path, What: what, Offset: off, Err: err}
	}
	return nil
}

// Window reads up to n bytes starting at off, truncating at end of stream.
// An offset at or past the end yields an empty slice, not an error; only
// transport failures are reported. Scanning code uses this to take chunked
// looks at the stream without tracking the boundary itself.
func (c *Cursor) Window(off int64, n int, what string) ([]byte, error) {
	if off >= c.size || off < 0 {
		return nil, nil
	}
	if remain := c.size - off; int64(n) > remain {
		n = int(remain)
	}
	buf := make([]byte, n)
	if err := c.ReadAt(buf, off, what); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadBE reads a big-endian value of type T at the given offset.
// MPEG frame headers and the Xing/VBRI side headers are all big-endian.
func ReadBE[T uint8 | uint16 | uint32 | uint64](c *Cursor, off int64, what string) (T, error) {
	var zero T
	var size int

	switch any(zero).(type) {
	case uint8:
		size = 1
	case uint16:
		size = 2
	case uint32:
		size = 4
	case uint64:
		size = 8
	}

	buf := make([]byte, size)
	if err := c.ReadAt(buf, off, what); err != nil {
		return zero, err
	}

	var val T
	switch any(zero).(type) {
	case uint8:
		val = T(buf[0])
	case uint16:
		val = T(binary.BigEndian.Uint16(buf))
	case uint32:
		val = T(binary.BigEndian.Uint32(buf))
	case uint64:
		val = T(binary.BigEndian.Uint64(buf))
	}
	return val, nil
}
