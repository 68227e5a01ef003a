package mpeg1audio

// Option configures behavior when opening streams.
//
// Options use the functional options pattern:
//
//	m, err := mpeg1audio.Open("song.mp3",
//	    mpeg1audio.WithMaxLookahead(256*1024),
//	    mpeg1audio.WithoutVBRHeaderTrust(),
//	)
type Option func(*openOptions)

// openOptions holds configuration for opening streams.
type openOptions struct {
	maxLookahead int64 // initial sync search bound; 0 = default
	beginOffset  int64 // audio payload start; -1 = auto-detect ID3v2
	endOffset    int64 // audio payload end; 0 = auto-detect ID3v1
	distrustVBR  bool  // ignore declared Xing/VBRI counts
	skipProbe    bool  // skip the mid-stream probe
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		maxLookahead: 0, // engine default
		beginOffset:  -1,
		endOffset:    0,
	}
}

// WithMaxLookahead bounds the initial frame search to n bytes.
//
// Open fails with NotMPEGAudioError if no frame confirms within the window.
// The default is 64 KiB, enough to skip the junk regions real files carry
// before their first frame. This bound never applies to resynchronization
// during a full scan.
func WithMaxLookahead(n int64) Option {
	return func(o *openOptions) {
		o.maxLookahead = n
	}
}

// WithBeginOffset sets the stream offset where the audio payload starts,
// replacing automatic ID3v2 tag detection.
//
// Use this when the tag boundary is already known, for example from a tag
// library that parsed the header, to save the detection read.
func WithBeginOffset(off int64) Option {
	return func(o *openOptions) {
		o.beginOffset = off
	}
}

// WithEndOffset sets the exclusive stream offset where the audio payload
// ends, replacing automatic ID3v1 tag detection.
func WithEndOffset(off int64) Option {
	return func(o *openOptions) {
		o.endOffset = off
	}
}

// WithoutVBRHeaderTrust makes the derived-value getters ignore the frame and
// byte counts declared by a Xing or VBRI header.
//
// The header is still detected and reported through VBR() and IsVBR(), but
// exact values come from a full scan. Use this for streams whose headers are
// known to lie, such as files edited without rewriting the side header.
func WithoutVBRHeaderTrust() Option {
	return func(o *openOptions) {
		o.distrustVBR = true
	}
}

// WithoutStreamProbe disables the mid-stream probe performed at open time.
//
// The probe confirms a short run of frames near the middle of the stream.
// It rejects non-MPEG input quickly and detects bitrate variation in streams
// that lack a VBR header, at the cost of one extra seek. Disable it for
// sources where mid-stream reads are expensive.
func WithoutStreamProbe() Option {
	return func(o *openOptions) {
		o.skipProbe = true
	}
}
