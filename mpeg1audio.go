package mpeg1audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/sunfish-shogi/bufseekio"
	"golang.org/x/sync/errgroup"

	"github.com/Ciantic/mpeg1audio/internal/binary"
	"github.com/Ciantic/mpeg1audio/internal/mpeg"
)

// ScanPolicy controls whether a getter may trigger a full frame-by-frame
// scan of the stream to produce an exact value.
//
// The zero value allows scanning, so getters always return a meaningful
// answer by default. Callers that need bounded latency pass NoFullScan and
// handle ErrScanRequired when no fast path exists.
type ScanPolicy uint8

const (
	// AllowFullScan lets the getter scan every frame when that is the only
	// way to answer exactly.
	AllowFullScan ScanPolicy = iota

	// NoFullScan restricts the getter to cached values, declared VBR header
	// values and O(1) estimates. Getters return ErrScanRequired instead of
	// scanning.
	NoFullScan
)

func (p ScanPolicy) allow() bool {
	return p == AllowFullScan
}

// Re-exported frame-level types. The internal/mpeg package owns the parsing;
// these aliases keep the public API in one import.
type (
	// FrameHeader is the decoded form of a 4-byte MPEG audio frame header.
	FrameHeader = mpeg.FrameHeader

	// Frame is a located frame: header, stream offset and size.
	Frame = mpeg.Frame

	// VBRInfo is the decoded Xing or VBRI side header, or the absent
	// variant.
	VBRInfo = mpeg.VBRInfo

	// VBRKind tags the variant of a VBRInfo.
	VBRKind = mpeg.VBRKind

	// ParseState tracks how much of the stream has been examined.
	ParseState = mpeg.ParseState

	// MPEGVersion is the MPEG audio version of a frame. Named to leave
	// Version free for the library version string.
	MPEGVersion = mpeg.Version

	// Layer is the MPEG audio layer of a frame.
	Layer = mpeg.Layer

	// ChannelMode is the channel mode of a frame.
	ChannelMode = mpeg.ChannelMode

	// Emphasis is the de-emphasis mode of a frame.
	Emphasis = mpeg.Emphasis
)

const (
	Unparsed        = mpeg.Unparsed
	BeginningParsed = mpeg.BeginningParsed
	EndParsed       = mpeg.EndParsed
	AllFramesParsed = mpeg.AllFramesParsed

	MPEG1  = mpeg.MPEG1
	MPEG2  = mpeg.MPEG2
	MPEG25 = mpeg.MPEG25

	LayerI   = mpeg.LayerI
	LayerII  = mpeg.LayerII
	LayerIII = mpeg.LayerIII

	Stereo      = mpeg.Stereo
	JointStereo = mpeg.JointStereo
	DualChannel = mpeg.DualChannel
	Mono        = mpeg.Mono

	VBRAbsent = mpeg.VBRAbsent
	VBRXing   = mpeg.VBRXing
	VBRVBRI   = mpeg.VBRVBRI

	// FreeFormat is the Bitrate value of free-format streams, whose frame
	// size is not derivable from the header alone.
	FreeFormat = mpeg.FreeFormat
)

// Metadata represents an opened MPEG audio stream and its lazily parsed
// technical metadata.
//
// Opening a stream parses only its beginning: the first confirmed frame and
// the Xing/VBRI side header, if any. Getters that need deeper knowledge
// advance the parsing on demand and memoize the result, so the expensive
// full scan happens at most once per stream.
//
// A Metadata instance is bound to one stream and is not safe for concurrent
// use. Always call Close when done:
//
//	m, err := mpeg1audio.Open("song.mp3")
//	if err != nil {
//		return err
//	}
//	defer m.Close()
type Metadata struct {
	// Path to the stream, or the name given to OpenReader
	Path string

	// Size of the whole stream in bytes, tags included
	Size int64

	engine *mpeg.Engine
	closer io.Closer
}

// Open opens an MPEG audio file and parses its beginning.
//
// On success the returned Metadata is at least in state BeginningParsed: the
// first frame header and any VBR side header are decoded, and the cheap
// getters (Bitrate, SampleRate, IsVBR) answer without further I/O.
//
// Open fails with NotMPEGAudioError when no confirmed frame header is found
// within the lookahead window, and with TruncatedStreamError when the stream
// is too short to hold a frame at all.
//
// Options customize parsing behavior:
//
//	m, err := mpeg1audio.Open("song.mp3",
//	    mpeg1audio.WithoutVBRHeaderTrust(),
//	)
func Open(path string, opts ...Option) (*Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	// Frame walks read a few bytes at a time; buffering turns them into
	// chunked I/O on the file.
	m, err := openReadSeeker(bufseekio.NewReadSeeker(f, 128*1024, 4), path, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	m.closer = f
	return m, nil
}

// OpenReader parses an MPEG audio stream from any seekable byte source.
//
// The name is used in error and warning messages only. Closing the returned
// Metadata does not close r.
func OpenReader(r io.ReadSeeker, name string, opts ...Option) (*Metadata, error) {
	return openReadSeeker(r, name, opts)
}

func openReadSeeker(r io.ReadSeeker, name string, opts []Option) (*Metadata, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	cur, err := binary.NewCursor(r, name)
	if err != nil {
		return nil, err
	}

	engine, err := mpeg.NewEngine(cur, mpeg.Config{
		MaxLookahead: options.maxLookahead,
		BeginOffset:  options.beginOffset,
		EndOffset:    options.endOffset,
		DistrustVBR:  options.distrustVBR,
		SkipProbe:    options.skipProbe,
	})
	if err != nil {
		return nil, err
	}

	return &Metadata{
		Path:   name,
		Size:   cur.Size(),
		engine: engine,
	}, nil
}

// OpenContext opens a file with context support for cancellation.
//
// This is a thin wrapper around Open that checks the context before
// starting; an in-progress scan is not interruptible.
func OpenContext(ctx context.Context, path string, opts ...Option) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Open(path, opts...)
}

// OpenMany opens multiple MPEG audio files concurrently.
//
// Files are parsed in parallel using up to runtime.NumCPU() goroutines.
// Results are returned in the same order as the input paths. If any file
// fails to open, all successfully opened files are closed and an error is
// returned.
func OpenMany(ctx context.Context, paths ...string) ([]*Metadata, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	results := make([]*Metadata, len(paths))
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			m, err := Open(path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			results[i] = m
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, m := range results {
			if m != nil {
				m.Close()
			}
		}
		return nil, err
	}
	return results, nil
}

// Close releases the underlying file handle, when Open created one.
//
// After Close, the Metadata should not be used.
func (m *Metadata) Close() error {
	if m.closer != nil {
		return m.closer.Close()
	}
	return nil
}

// Header returns the first frame's decoded header. The version, layer and
// sample rate it carries hold for the whole stream.
func (m *Metadata) Header() FrameHeader {
	return m.engine.First().Header
}

// Bitrate returns the first frame's bitrate in kbps, or FreeFormat (0) for
// free-format streams. For VBR streams this is only the first frame's rate;
// use AverageBitrate for the stream-wide figure.
func (m *Metadata) Bitrate() int {
	return m.engine.First().Header.Bitrate
}

// SampleRate returns the sample rate in Hz.
func (m *Metadata) SampleRate() int {
	return m.engine.First().Header.SampleRate
}

// Channels returns the channel count, 1 or 2.
func (m *Metadata) Channels() int {
	return m.engine.First().Header.Channels()
}

// SamplesPerFrame returns the PCM sample count encoded in each frame.
func (m *Metadata) SamplesPerFrame() int {
	return m.engine.First().Header.SamplesPerFrame()
}

// IsVBR reports whether the stream carries a Xing or VBRI side header.
//
// A stream encoded with varying bitrates but no side header reports false
// here; its exact values are still available through the scanning getters.
func (m *Metadata) IsVBR() bool {
	return m.engine.IsVBR()
}

// VBR returns the decoded VBR side header, or the absent variant.
func (m *Metadata) VBR() VBRInfo {
	return m.engine.VBR()
}

// State returns how much of the stream has been parsed so far.
func (m *Metadata) State() ParseState {
	return m.engine.State()
}

// Warnings returns the non-fatal issues collected while parsing, such as
// corrupt frames skipped during a scan.
func (m *Metadata) Warnings() []Warning {
	return m.engine.Warnings()
}

// Duration returns the stream duration.
//
// With a trusted VBR header or a constant-bitrate stream the answer is O(1);
// otherwise an exact answer needs a full scan, which the policy may forbid.
func (m *Metadata) Duration(p ScanPolicy) (time.Duration, error) {
	return m.engine.Duration(p.allow())
}

// FrameCount returns the total number of frames.
func (m *Metadata) FrameCount(p ScanPolicy) (int64, error) {
	return m.engine.FrameCount(p.allow())
}

// SampleCount returns the total number of PCM samples per channel.
func (m *Metadata) SampleCount(p ScanPolicy) (int64, error) {
	return m.engine.SampleCount(p.allow())
}

// AudioSize returns the audio payload size in bytes, excluding leading and
// trailing tag regions. Needs at most the end parse, never a full scan.
func (m *Metadata) AudioSize(p ScanPolicy) (int64, error) {
	return m.engine.AudioSize(p.allow())
}

// AverageBitrate returns the mean bitrate in kbps over the whole stream.
func (m *Metadata) AverageBitrate(p ScanPolicy) (float64, error) {
	return m.engine.AverageBitrate(p.allow())
}

// AverageFrameSize returns the mean frame size in bytes.
func (m *Metadata) AverageFrameSize(p ScanPolicy) (float64, error) {
	return m.engine.AverageFrameSize(p.allow())
}

// ParseAll scans every frame of the stream immediately, regardless of what
// the fast paths could answer. Afterwards Duration, FrameCount, SampleCount,
// AverageBitrate and AverageFrameSize are exact and need no further I/O.
func (m *Metadata) ParseAll() error {
	return m.engine.ParseAll()
}
