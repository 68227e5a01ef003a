package mpeg1audio

import (
	"github.com/Ciantic/mpeg1audio/internal/types"
)

// NotMPEGAudioError is an alias to types.NotMPEGAudioError.
// Re-exporting from internal/types to keep the public API in one package.
type NotMPEGAudioError = types.NotMPEGAudioError

// TruncatedStreamError is an alias to types.TruncatedStreamError.
// Re-exporting from internal/types to keep the public API in one package.
type TruncatedStreamError = types.TruncatedStreamError

// OutOfBoundsError is an alias to types.OutOfBoundsError.
// Re-exporting from internal/types to keep the public API in one package.
type OutOfBoundsError = types.OutOfBoundsError

// TransportError is an alias to types.TransportError.
// Re-exporting from internal/types to keep the public API in one package.
type TransportError = types.TransportError

// Warning is an alias to types.Warning.
// Re-exporting from internal/types to keep the public API in one package.
type Warning = types.Warning

// ErrScanRequired is returned by getters when the requested value has no
// fast path and the scan policy forbids the full frame scan that would
// produce it. Retry with AllowFullScan, or call ParseAll first.
var ErrScanRequired = types.ErrScanRequired
