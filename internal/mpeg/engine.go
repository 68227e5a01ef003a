package mpeg

import (
	"errors"
	"time"

	binutil "github.com/Ciantic/mpeg1audio/internal/binary"
	"github.com/Ciantic/mpeg1audio/internal/types"
)

// ParseState tracks how much of the stream has been examined. It only ever
// advances: Unparsed < BeginningParsed < EndParsed < AllFramesParsed.
type ParseState uint8

const (
	Unparsed ParseState = iota
	BeginningParsed
	EndParsed
	AllFramesParsed
)

func (s ParseState) String() string {
	switch s {
	case Unparsed:
		return "unparsed"
	case BeginningParsed:
		return "beginning parsed"
	case EndParsed:
		return "end parsed"
	case AllFramesParsed:
		return "all frames parsed"
	}
	return "unknown"
}

const (
	// DefaultMaxLookahead bounds the initial synchronization search.
	DefaultMaxLookahead = 64 * 1024

	// probeWindowSize is the size of the mid-stream region in which the
	// probe must confirm a short run of frames.
	probeWindowSize = 16384
	probeFrameRun   = 3

	// endSearchStep is the rewind step of the backward search for the last
	// frame.
	endSearchStep = 4000
)

// Config carries the construction parameters of an Engine. The zero value
// means: default lookahead, auto-detected tag boundaries, VBR headers
// trusted, probe enabled.
type Config struct {
	// MaxLookahead bounds the initial frame search in bytes; 0 means
	// DefaultMaxLookahead. Resynchronization during a full scan is never
	// bounded by it.
	MaxLookahead int64

	// BeginOffset is where the audio payload starts. Negative means
	// auto-detect: skip a leading ID3v2 tag when present.
	BeginOffset int64

	// EndOffset is the exclusive end of the audio payload. Zero or negative
	// means auto-detect: stop short of a trailing ID3v1 tag when present.
	EndOffset int64

	// DistrustVBR makes the engine ignore declared Xing/VBRI frame and byte
	// counts for derived values. The header is still detected and reported.
	DistrustVBR bool

	// SkipProbe disables the mid-stream probe.
	SkipProbe bool
}

// Engine is the lazy metadata engine: it owns the cursor, advances the parse
// state on demand and memoizes everything it learns. Not safe for concurrent
// use; one engine per stream.
type Engine struct {
	cur  *binutil.Cursor
	sync synchronizer
	cfg  Config

	state ParseState
	first Frame
	vbr   VBRInfo

	begin int64 // audio payload start
	end   int64 // audio payload end (exclusive); tightened by parseEnding
	last  Frame // last confirmed frame, valid once EndParsed

	// mixedBitrate is set when the mid-stream probe saw a bitrate different
	// from the first frame's: a VBR stream without a VBR header. It disables
	// the CBR fast paths but does not affect IsVBR.
	mixedBitrate bool

	frameCount int64 // exact, valid once AllFramesParsed
	byteCount  int64 // sum of parsed frame sizes, valid once AllFramesParsed

	warnings []types.Warning
}

// NewEngine constructs an engine over cur and synchronously brings it to
// BeginningParsed: tag boundaries, optional probe, first confirmed frame, VBR
// header detection. Construction fails with NotMPEGAudioError when no frame
// confirms within the lookahead window, or TruncatedStreamError when the
// stream cannot hold a frame header at all.
func NewEngine(cur *binutil.Cursor, cfg Config) (*Engine, error) {
	if cfg.MaxLookahead <= 0 {
		cfg.MaxLookahead = DefaultMaxLookahead
	}

	e := &Engine{
		cur:  cur,
		sync: synchronizer{cur: cur},
		cfg:  cfg,
	}

	if err := e.resolveBoundaries(); err != nil {
		return nil, err
	}
	if e.end-e.begin < 4 {
		return nil, &types.TruncatedStreamError{
			Path:   cur.Path(),
			Offset: e.begin,
			Size:   cur.Size(),
		}
	}

	var probeBitrates []int
	if !cfg.SkipProbe {
		var err error
		probeBitrates, err = e.probe()
		if err != nil {
			return nil, err
		}
	}

	first, err := e.sync.next(e.begin, cfg.MaxLookahead, e.end)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			searched := cfg.MaxLookahead
			if remain := e.end - e.begin; remain < searched {
				searched = remain
			}
			return nil, &types.NotMPEGAudioError{
				Path:     cur.Path(),
				Reason:   "no confirmed frame header found",
				Searched: searched,
			}
		}
		return nil, err
	}
	e.first = first
	e.begin = first.Offset

	for _, b := range probeBitrates {
		if b != first.Header.Bitrate {
			e.mixedBitrate = true
			break
		}
	}

	vbr, err := detectVBR(cur, first)
	if err != nil {
		return nil, err
	}
	e.vbr = vbr

	e.state = BeginningParsed
	return e, nil
}

// resolveBoundaries establishes the initial audio payload boundaries from the
// configuration or from ID3 tag detection.
func (e *Engine) resolveBoundaries() error {
	if e.cfg.BeginOffset >= 0 {
		e.begin = e.cfg.BeginOffset
	} else {
		tag, err := id3v2TagSize(e.cur)
		if err != nil {
			return err
		}
		e.begin = tag
	}

	if e.cfg.EndOffset > 0 && e.cfg.EndOffset <= e.cur.Size() {
		e.end = e.cfg.EndOffset
		return nil
	}
	e.end = e.cur.Size()
	v1, err := hasID3v1(e.cur)
	if err != nil {
		return err
	}
	if v1 {
		e.end -= id3v1Length
	}
	return nil
}

// probe confirms a short run of consecutive frames near the middle of the
// stream, failing construction fast for non-MPEG input, and returns the
// bitrates it saw so the constructor can detect headerless VBR streams.
func (e *Engine) probe() ([]int, error) {
	region := e.end - e.begin
	start := e.begin + region/2 - probeWindowSize/2
	if region < 2*probeWindowSize || start < e.begin {
		// Too small for a mid-stream window; probe from the front.
		start = e.begin
	}

	f, err := e.sync.next(start, probeWindowSize, e.end)
	if err != nil {
		if errors.Is(err, ErrNoFrame) {
			return nil, &types.NotMPEGAudioError{
				Path:     e.cur.Path(),
				Reason:   "no frame sequence found in the probe window",
				Searched: probeWindowSize,
			}
		}
		return nil, err
	}

	bitrates := []int{f.Header.Bitrate}
	for len(bitrates) < probeFrameRun {
		next, err := e.sync.follow(f, e.end)
		if err != nil {
			if isCursorError(err) {
				return nil, err
			}
			// Short stream or corrupt region; the confirmed frames we have
			// are enough for the probe's purpose.
			break
		}
		f = next
		bitrates = append(bitrates, f.Header.Bitrate)
	}
	return bitrates, nil
}

// parseEnding advances the engine to EndParsed: it rewinds from the end of
// the stream in fixed steps until a region containing confirmable frames is
// found, walks to the last of them and tightens the payload boundary to its
// end. Memoized; repeated calls do no I/O.
func (e *Engine) parseEnding() error {
	if e.state >= EndParsed {
		return nil
	}

	pos := e.end - endSearchStep
	for {
		if pos < e.begin {
			pos = e.begin
		}

		f, err := e.sync.next(pos, -1, e.end)
		if err == nil {
			last := f
			for {
				next, ferr := e.sync.follow(last, e.end)
				if ferr != nil {
					if isCursorError(ferr) {
						return ferr
					}
					break
				}
				last = next
			}
			if gap := e.end - last.End(); gap > trailingTagTolerance {
				e.warnings = append(e.warnings, types.Warning{
					Stage:   "ending",
					Message: "unparseable trailing region excluded from the audio payload",
					Offset:  last.End(),
				})
			}
			e.last = last
			e.end = last.End()
			e.state = EndParsed
			return nil
		}
		if !errors.Is(err, ErrNoFrame) {
			return err
		}
		if pos == e.begin {
			// Nothing confirms anywhere, not even the first frame again.
			// Fall back to the first frame as the last one.
			e.last = e.first
			e.end = e.first.End()
			e.state = EndParsed
			return nil
		}
		pos -= endSearchStep
	}
}

// parseAll advances the engine to AllFramesParsed: it walks frame to frame
// from the first, accumulating exact frame and byte counts. A frame that
// fails to confirm at its expected offset is skipped by resynchronizing from
// one byte past it; an unresolvable trailing region ends the scan partially
// with a warning instead of failing. Memoized.
func (e *Engine) parseAll() error {
	if e.state == AllFramesParsed {
		return nil
	}
	if err := e.parseEnding(); err != nil {
		return err
	}

	count := int64(1)
	bytes := e.first.Size
	frame := e.first
	for frame.End() < e.end {
		next, err := e.sync.follow(frame, e.end)
		if err == nil {
			frame = next
			count++
			bytes += next.Size
			continue
		}
		if errors.Is(err, ErrNoFrame) {
			break
		}
		if isCursorError(err) {
			return err
		}

		e.warnings = append(e.warnings, types.Warning{
			Stage:   "scan",
			Message: "frame failed to confirm, resynchronizing",
			Offset:  frame.End(),
		})
		resynced, rerr := e.sync.next(frame.End()+1, -1, e.end)
		if rerr != nil {
			if errors.Is(rerr, ErrNoFrame) {
				e.warnings = append(e.warnings, types.Warning{
					Stage:   "scan",
					Message: "scan completed partially; counts cover parsed frames only",
					Offset:  frame.End(),
				})
				break
			}
			return rerr
		}
		frame = resynced
		count++
		bytes += resynced.Size
	}

	e.frameCount = count
	e.byteCount = bytes
	e.last = frame
	e.state = AllFramesParsed
	return nil
}

// ParseAll forces the exact full scan regardless of what the fast paths
// could answer. Afterwards every derived value is exact.
func (e *Engine) ParseAll() error {
	return e.parseAll()
}

// State returns the current parse state.
func (e *Engine) State() ParseState {
	return e.state
}

// First returns the first confirmed frame.
func (e *Engine) First() Frame {
	return e.first
}

// VBR returns the detected VBR side header, or the absent variant.
func (e *Engine) VBR() VBRInfo {
	return e.vbr
}

// IsVBR reports whether a Xing or VBRI side header is present.
func (e *Engine) IsVBR() bool {
	return !e.vbr.Absent()
}

// Warnings returns the non-fatal issues collected so far.
func (e *Engine) Warnings() []types.Warning {
	return e.warnings
}

// declaredFrameCount returns the trusted declared total frame count, if any.
func (e *Engine) declaredFrameCount() (int64, bool) {
	if e.cfg.DistrustVBR || e.vbr.Absent() || e.vbr.FrameCount < 0 {
		return 0, false
	}
	return e.vbr.FrameCount, true
}

// cbrFastPath reports whether the stream may be treated as constant bitrate
// for O(1) estimates: no VBR header, no probe-detected bitrate variation and
// a derivable frame length.
func (e *Engine) cbrFastPath() bool {
	return e.vbr.Absent() && !e.mixedBitrate && !e.first.Header.FreeFormat()
}

// FrameCount returns the total frame count: exact after a full scan, declared
// by a trusted VBR header, or estimated from the payload size for CBR
// streams. With scanning disallowed and no fast path it returns
// ErrScanRequired.
func (e *Engine) FrameCount(allowScan bool) (int64, error) {
	if e.state == AllFramesParsed {
		return e.frameCount, nil
	}
	if fc, ok := e.declaredFrameCount(); ok {
		return fc, nil
	}
	if e.cbrFastPath() {
		if err := e.parseEnding(); err != nil {
			return 0, err
		}
		h := e.first.Header
		h.Padding = false
		// Dividing by the unpadded length plus one averages over the
		// padded and unpadded frames the stream interleaves.
		return ceilDiv(e.end-e.begin, int64(h.FrameLength())+1), nil
	}
	if !allowScan {
		return 0, types.ErrScanRequired
	}
	if err := e.parseAll(); err != nil {
		return 0, err
	}
	return e.frameCount, nil
}

// SampleCount returns the total PCM sample count per channel.
func (e *Engine) SampleCount(allowScan bool) (int64, error) {
	fc, err := e.FrameCount(allowScan)
	if err != nil {
		return 0, err
	}
	return fc * int64(e.first.Header.SamplesPerFrame()), nil
}

// Duration returns the stream duration: exact after a full scan, derived from
// a trusted VBR header, or estimated from size and bitrate for CBR streams.
func (e *Engine) Duration(allowScan bool) (time.Duration, error) {
	if e.state == AllFramesParsed {
		return e.exactDuration(), nil
	}
	if fc, ok := e.declaredFrameCount(); ok {
		return e.durationOf(fc), nil
	}
	if e.cbrFastPath() {
		if err := e.parseEnding(); err != nil {
			return 0, err
		}
		secs := float64(e.end-e.begin) * 8 / float64(e.first.Header.Bitrate*1000)
		return time.Duration(secs * float64(time.Second)), nil
	}
	if !allowScan {
		return 0, types.ErrScanRequired
	}
	if err := e.parseAll(); err != nil {
		return 0, err
	}
	return e.exactDuration(), nil
}

// AudioSize returns the audio payload size in bytes, excluding leading and
// trailing tag regions. It needs at most the end parse, which is permitted
// under either scan policy.
func (e *Engine) AudioSize(allowScan bool) (int64, error) {
	if err := e.parseEnding(); err != nil {
		return 0, err
	}
	return e.end - e.begin, nil
}

// AverageBitrate returns the mean bitrate in kbps. For CBR streams this is
// the header bitrate; otherwise it is derived from byte and sample totals.
func (e *Engine) AverageBitrate(allowScan bool) (float64, error) {
	if e.state == AllFramesParsed {
		samples := e.frameCount * int64(e.first.Header.SamplesPerFrame())
		return bitrateOver(e.byteCount, samples, e.first.Header.SampleRate), nil
	}
	if fc, ok := e.declaredFrameCount(); ok {
		bytes := e.vbr.ByteCount
		if bytes < 0 {
			var err error
			bytes, err = e.AudioSize(allowScan)
			if err != nil {
				return 0, err
			}
		}
		samples := fc * int64(e.first.Header.SamplesPerFrame())
		return bitrateOver(bytes, samples, e.first.Header.SampleRate), nil
	}
	if e.cbrFastPath() {
		return float64(e.first.Header.Bitrate), nil
	}
	if !allowScan {
		return 0, types.ErrScanRequired
	}
	if err := e.parseAll(); err != nil {
		return 0, err
	}
	samples := e.frameCount * int64(e.first.Header.SamplesPerFrame())
	return bitrateOver(e.byteCount, samples, e.first.Header.SampleRate), nil
}

// AverageFrameSize returns the mean frame size in bytes.
func (e *Engine) AverageFrameSize(allowScan bool) (float64, error) {
	if e.state == AllFramesParsed {
		return float64(e.byteCount) / float64(e.frameCount), nil
	}
	fc, err := e.FrameCount(allowScan)
	if err != nil {
		return 0, err
	}
	size, err := e.AudioSize(allowScan)
	if err != nil {
		return 0, err
	}
	return float64(size) / float64(fc), nil
}

func (e *Engine) exactDuration() time.Duration {
	return e.durationOf(e.frameCount)
}

func (e *Engine) durationOf(frames int64) time.Duration {
	secs := float64(frames) * float64(e.first.Header.SamplesPerFrame()) /
		float64(e.first.Header.SampleRate)
	return time.Duration(secs * float64(time.Second))
}

// bitrateOver derives kbps from a byte total and a per-channel sample total.
func bitrateOver(bytes, samples int64, sampleRate int) float64 {
	if samples == 0 {
		return 0
	}
	return float64(bytes) / float64(samples) * float64(sampleRate) * 8 / 1000
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

// isCursorError reports whether err is a cursor failure (transport or bounds)
// rather than a frame-level decode outcome. Cursor failures always propagate;
// decode outcomes are handled by resynchronization.
func isCursorError(err error) bool {
	var te *types.TransportError
	var oe *types.OutOfBoundsError
	return errors.As(err, &te) || errors.As(err, &oe)
}
