// Package types provides the error kinds and warning values shared by the
// cursor, the frame parser and the public facade.
package types

import (
	"errors"
	"fmt"
)

// ErrScanRequired signals that a getter was asked for a value that has no
// fast path and that the caller's scan policy forbids the full frame scan
// which would produce it. It is an explicit "unknown" outcome, not a failure:
// retry with a policy that allows scanning, or call ParseAll.
var ErrScanRequired = errors.New("value unknown without a full frame scan")

// NotMPEGAudioError is returned when no confirmed MPEG audio frame header was
// found within the bounded lookahead window. Fatal to construction.
type NotMPEGAudioError struct {
	Path     string
	Reason   string
	Searched int64 // bytes examined before giving up
}

func (e *NotMPEGAudioError) Error() string {
	if e.Searched > 0 {
		return fmt.Sprintf("%s: not MPEG audio: %s (searched %d bytes)",
			e.Path, e.Reason, e.Searched)
	}
	return fmt.Sprintf("%s: not MPEG audio: %s", e.Path, e.Reason)
}

// TruncatedStreamError is returned when the stream ends before a complete
// frame header could be read during initial synchronization. Fatal to
// construction.
type TruncatedStreamError struct {
	Path   string
	Offset int64
	Size   int64
}

func (e *TruncatedStreamError) Error() string {
	return fmt.Sprintf("%s: stream truncated at offset %d (size %d) before a frame header was complete",
		e.Path, e.Offset, e.Size)
}

// OutOfBoundsError is returned when a read would extend beyond the stream.
type OutOfBoundsError struct {
	Path   string
	What   string
	Offset int64
	Length int
	Size   int64
}

func (e *OutOfBoundsError) Error() string {
	if e.Offset >= e.Size {
		return fmt.Sprintf("%s: offset %d out of bounds (stream size: %d) while reading %s",
			e.Path, e.Offset, e.Size, e.What)
	}
	return fmt.Sprintf("%s: read of %d bytes at offset %d would exceed stream size %d while reading %s",
		e.Path, e.Length, e.Offset, e.Size, e.What)
}

// TransportError wraps a failure of the underlying byte source. It is
// distinct from the format errors above so callers can tell "not audio"
// apart from "storage failure".
type TransportError struct {
	Path   string
	What   string
	Offset int64
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: failed to read %s at offset %d: %v", e.Path, e.What, e.Offset, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Warning represents a non-fatal issue encountered while scanning.
//
// Warnings indicate conditions that don't prevent metadata extraction but
// affect its accuracy, such as a corrupt frame skipped by resynchronization
// or a full scan that completed partially. They are collected on the
// Metadata aggregate, never raised.
type Warning struct {
	// Stage where the warning occurred: "beginning", "ending", "scan"
	Stage string

	// Warning message
	Message string

	// Stream offset where the issue occurred (0 if not applicable)
	Offset int64
}

// String returns a human-readable warning message.
func (w Warning) String() string {
	if w.Offset > 0 {
		return fmt.Sprintf("%s (at offset %d): %s", w.Stage, w.Offset, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Stage, w.Message)
}
