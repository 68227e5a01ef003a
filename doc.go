// Package mpeg1audio extracts technical metadata from MPEG-1/2/2.5 Audio
// elementary streams (Layers I, II and III) without decoding any audio.
//
// It answers "how long is this audio" and "how was it encoded" with fast,
// memory-bounded reads: duration, bitrate, sample count, frame count and VBR
// indicators, even for files whose true duration is only knowable by
// scanning every frame.
//
// # Quick Start
//
// Reading metadata from an MP3 file:
//
//	m, err := mpeg1audio.Open("song.mp3")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer m.Close()
//
//	d, _ := m.Duration(mpeg1audio.AllowFullScan)
//	fmt.Printf("%s: %s, %d kbps, %d Hz\n", m.Path, d, m.Bitrate(), m.SampleRate())
//
// # Lazy Parsing
//
// Opening a stream parses only its beginning: the first confirmed frame and
// the Xing/VBRI side header, if any. Each getter then decides whether cached
// information suffices or deeper scanning is needed:
//
//   - Streams with a trusted VBR header answer everything in O(1) from the
//     declared frame and byte counts.
//   - Constant-bitrate streams answer in O(1) with an estimate derived from
//     the payload size and the header bitrate.
//   - Everything else needs a frame-by-frame scan, performed at most once
//     and memoized.
//
// Getters take a ScanPolicy. With NoFullScan they never scan; when no fast
// path exists they return ErrScanRequired instead of blocking:
//
//	d, err := m.Duration(mpeg1audio.NoFullScan)
//	if errors.Is(err, mpeg1audio.ErrScanRequired) {
//		// exact answer needs a scan; decide whether to pay for it
//	}
//
// ParseAll forces the scan up front; afterwards every value is exact.
//
// # Error Handling
//
// Only conditions that make any meaningful metadata impossible are fatal:
// NotMPEGAudioError when no confirmed frame exists within the lookahead
// window, TruncatedStreamError when the stream cannot hold a frame at all.
// I/O failures surface as TransportError, distinct from format errors.
//
// Corrupt frames met during a full scan are skipped by resynchronization
// and recorded as Warnings; the scan completes with a partial result rather
// than failing:
//
//	for _, w := range m.Warnings() {
//		log.Printf("warning: %s", w)
//	}
//
// # Scope
//
// The package reads frame structure only. It does not decode audio samples
// and it does not parse ID3 tag contents: tags are detected just enough to
// exclude them from the audio payload. Pair it with a tag library when you
// need titles and artists next to the technical data.
package mpeg1audio
