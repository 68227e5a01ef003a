// Package mpeg implements frame-level parsing of MPEG-1/2/2.5 Audio
// elementary streams: header decoding, frame synchronization, Xing/VBRI side
// headers and the lazy metadata engine built on top of them.
//
// Header layout and table values follow the MPEG audio frame header
// documentation at
// http://www.codeproject.com/KB/audio-video/mpegaudioinfo.aspx#MPEGAudioFrame
package mpeg

import (
	"encoding/binary"
	"errors"
)

// Version is the MPEG audio version of a frame.
type Version uint8

const (
	MPEG1 Version = iota
	MPEG2
	MPEG25
)

func (v Version) String() string {
	switch v {
	case MPEG1:
		return "1"
	case MPEG2:
		return "2"
	case MPEG25:
		return "2.5"
	}
	return "unknown"
}

// Layer is the MPEG audio layer of a frame.
type Layer uint8

const (
	LayerI Layer = iota
	LayerII
	LayerIII
)

func (l Layer) String() string {
	switch l {
	case LayerI:
		return "I"
	case LayerII:
		return "II"
	case LayerIII:
		return "III"
	}
	return "unknown"
}

// ChannelMode is the channel mode of a frame.
type ChannelMode uint8

const (
	Stereo ChannelMode = iota
	JointStereo
	DualChannel
	Mono
)

func (m ChannelMode) String() string {
	switch m {
	case Stereo:
		return "stereo"
	case JointStereo:
		return "joint stereo"
	case DualChannel:
		return "dual channel"
	case Mono:
		return "mono"
	}
	return "unknown"
}

// Emphasis is the de-emphasis mode of a frame.
type Emphasis uint8

const (
	EmphasisNone Emphasis = iota
	Emphasis5015
	EmphasisReserved
	EmphasisCCITJ17
)

func (e Emphasis) String() string {
	switch e {
	case EmphasisNone:
		return "none"
	case Emphasis5015:
		return "50/15 ms"
	case EmphasisReserved:
		return "reserved"
	case EmphasisCCITJ17:
		return "CCIT J.17"
	}
	return "unknown"
}

// FreeFormat is the Bitrate value of a free-format frame (bitrate index 0):
// the stream is constant bitrate at a rate not in the lookup tables, and the
// frame length cannot be derived from the header alone.
const FreeFormat = 0

// Header rejection reasons. A candidate 4-byte window that uses a reserved
// enumeration value is rejected with one of these rather than decoded with a
// default.
var (
	ErrBadSync            = errors.New("sync bits do not match")
	ErrReservedVersion    = errors.New("reserved MPEG version")
	ErrReservedLayer      = errors.New("reserved layer")
	ErrReservedBitrate    = errors.New("reserved bitrate index")
	ErrReservedSampleRate = errors.New("reserved sample rate index")
	ErrShortHeader        = errors.New("fewer than 4 header bytes")
)

// Bitrate tables in kbps, indexed by [version group][layer][bitrate index].
// MPEG-2 and MPEG-2.5 share a table. Index 0 is free format, index 15 is
// reserved.
var bitrateTable = [2][3][16]int{
	{ // MPEG-1
		{0, 32, 64, 96, 128, 160, 192, 224, 256, 288, 320, 352, 384, 416, 448, 0},
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 384, 0},
		{0, 32, 40, 48, 56, 64, 80, 96, 112, 128, 160, 192, 224, 256, 320, 0},
	},
	{ // MPEG-2, MPEG-2.5
		{0, 32, 48, 56, 64, 80, 96, 112, 128, 144, 160, 176, 192, 224, 256, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
		{0, 8, 16, 24, 32, 40, 48, 56, 64, 80, 96, 112, 128, 144, 160, 0},
	},
}

// Sample rate tables in Hz, indexed by [version][sample rate index].
var sampleRateTable = [3][4]int{
	{44100, 48000, 32000, 0}, // MPEG-1
	{22050, 24000, 16000, 0}, // MPEG-2
	{11025, 12000, 8000, 0},  // MPEG-2.5
}

// Samples per frame, indexed by [version group][layer].
var samplesPerFrameTable = [2][3]int{
	{384, 1152, 1152}, // MPEG-1
	{384, 1152, 576},  // MPEG-2, MPEG-2.5
}

// Frame length slot coefficients, indexed by [version group][layer], and the
// slot size per layer. Layer I frames are counted in 4-byte slots.
var (
	slotCoeffTable = [2][3]int{
		{12, 144, 144},
		{12, 144, 72},
	}
	slotSizeTable = [3]int{4, 1, 1}
)

// group maps a version to its bitrate/samples table group (MPEG-2 and
// MPEG-2.5 share tables).
func (v Version) group() int {
	if v == MPEG1 {
		return 0
	}
	return 1
}

// FrameHeader is the decoded form of a 4-byte MPEG audio frame header.
// Immutable once decoded; all derived values are pure table lookups.
type FrameHeader struct {
	Version    Version
	Layer      Layer
	Bitrate    int // kbps; FreeFormat (0) for free-format frames
	SampleRate int // Hz

	Padding   bool // frame is one slot longer
	Protected bool // 16-bit CRC follows the header

	Private     bool
	Copyrighted bool
	Original    bool

	ChannelMode   ChannelMode
	ModeExtension uint8
	Emphasis      Emphasis
}

// ParseHeader decodes a 4-byte candidate window into a FrameHeader, or
// reports why the window cannot be a frame header. Pure function; it never
// defaults a reserved field.
func ParseHeader(b []byte) (FrameHeader, error) {
	if len(b) < 4 {
		return FrameHeader{}, ErrShortHeader
	}
	return decodeHeader(binary.BigEndian.Uint32(b))
}

func decodeHeader(raw uint32) (FrameHeader, error) {
	var h FrameHeader

	// 11 sync bits.
	if raw&0xFFE00000 != 0xFFE00000 {
		return h, ErrBadSync
	}

	switch (raw >> 19) & 0x3 {
	case 0:
		h.Version = MPEG25
	case 2:
		h.Version = MPEG2
	case 3:
		h.Version = MPEG1
	default:
		return h, ErrReservedVersion
	}

	switch (raw >> 17) & 0x3 {
	case 1:
		h.Layer = LayerIII
	case 2:
		h.Layer = LayerII
	case 3:
		h.Layer = LayerI
	default:
		return h, ErrReservedLayer
	}

	bitrateIndex := (raw >> 12) & 0xF
	if bitrateIndex == 0xF {
		return h, ErrReservedBitrate
	}
	h.Bitrate = bitrateTable[h.Version.group()][h.Layer][bitrateIndex]

	sampleRateIndex := (raw >> 10) & 0x3
	if sampleRateIndex == 0x3 {
		return h, ErrReservedSampleRate
	}
	h.SampleRate = sampleRateTable[h.Version][sampleRateIndex]

	h.Protected = (raw>>16)&0x1 == 0
	h.Padding = (raw>>9)&0x1 == 1
	h.Private = (raw>>8)&0x1 == 1
	h.ChannelMode = ChannelMode((raw >> 6) & 0x3)
	h.ModeExtension = uint8((raw >> 4) & 0x3)
	h.Copyrighted = (raw>>3)&0x1 == 1
	h.Original = (raw>>2)&0x1 == 1
	h.Emphasis = Emphasis(raw & 0x3)
	return h, nil
}

// FreeFormat reports whether the frame uses the free bitrate format.
func (h FrameHeader) FreeFormat() bool {
	return h.Bitrate == FreeFormat
}

// SamplesPerFrame returns the PCM sample count encoded in one frame.
// Constant per (version, layer) pair, e.g. 1152 for MPEG-1 Layer III.
func (h FrameHeader) SamplesPerFrame() int {
	return samplesPerFrameTable[h.Version.group()][h.Layer]
}

// FrameLength returns the frame size in bytes, including the 4 header bytes.
// Returns 0 for free-format frames, whose size is not derivable from the
// header alone.
func (h FrameHeader) FrameLength() int {
	if h.FreeFormat() {
		return 0
	}
	pad := 0
	if h.Padding {
		pad = 1
	}
	coeff := slotCoeffTable[h.Version.group()][h.Layer]
	return (coeff*h.Bitrate*1000/h.SampleRate + pad) * slotSizeTable[h.Layer]
}

// Channels returns the channel count for the frame's channel mode.
func (h FrameHeader) Channels() int {
	if h.ChannelMode == Mono {
		return 1
	}
	return 2
}

// SideInfoLength returns the Layer III side information size in bytes, which
// determines where a Xing header sits inside the first frame. Zero for
// Layers I and II, which carry no side information block.
func (h FrameHeader) SideInfoLength() int {
	if h.Layer != LayerIII {
		return 0
	}
	if h.Version == MPEG1 {
		if h.ChannelMode == Mono {
			return 17
		}
		return 32
	}
	if h.ChannelMode == Mono {
		return 9
	}
	return 17
}

// compatible reports whether another header plausibly belongs to the same
// stream: version, layer and sample rate never change between frames of one
// elementary stream. Bitrate may (VBR), so it is not compared.
func (h FrameHeader) compatible(other FrameHeader) bool {
	return h.Version == other.Version &&
		h.Layer == other.Layer &&
		h.SampleRate == other.SampleRate
}

// Frame is a located frame: its decoded header, its offset in the stream and
// its size in bytes. For free-format frames Size is measured by the
// synchronizer instead of derived from the header.
type Frame struct {
	Header FrameHeader
	Offset int64
	Size   int64
}

// End returns the offset one past the frame's last byte.
func (f Frame) End() int64 {
	return f.Offset + f.Size
}
