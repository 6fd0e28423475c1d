package mbtiles

import "errors"

// Sentinel errors for package mbtiles.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Metadata errors
	ErrMissingMetadata   = errors.New("required metadata key is missing")
	ErrUnsupportedFormat = errors.New("unsupported tile format")

	// Addressing errors
	ErrInvalidAddress = errors.New("tile address outside of the zoom grid")

	// Compression errors
	ErrUnknownEnvelope = errors.New("payload is neither gzip nor zlib")
	ErrInflate         = errors.New("could not inflate tile payload")
)
