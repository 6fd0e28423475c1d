package mbtiles

import (
	"context"
	"fmt"
)

// Metadata keys every mountable archive must carry.
const (
	KeyMinZoom = "minzoom"
	KeyMaxZoom = "maxzoom"
	KeyFormat  = "format"
)

// Format is the tile encoding declared in the archive metadata.
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	FormatPBF Format = "pbf"
)

// ParseFormat accepts exactly the three encodings the filesystem can expose.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatPNG, FormatJPG, FormatPBF:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// Ext is the file extension used for tiles of this format, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Vector reports whether stored tiles are compressed vector payloads that
// must be inflated before they are handed out.
func (f Format) Vector() bool {
	return f == FormatPBF
}

// Metadata is the archive description resolved once at mount. It is never
// modified after LoadMetadata returns it.
type Metadata struct {
	MinZoom int
	MaxZoom int
	Format  Format
}

// LoadMetadata reads minzoom, maxzoom and format over conn. A missing key or
// an unrecognized format is an error; the archive cannot be mounted.
func LoadMetadata(ctx context.Context, conn *Conn) (Metadata, error) {
	var m Metadata

	minZoom, ok := conn.MetadataInt(ctx, KeyMinZoom)
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrMissingMetadata, KeyMinZoom)
	}
	maxZoom, ok := conn.MetadataInt(ctx, KeyMaxZoom)
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrMissingMetadata, KeyMaxZoom)
	}
	raw, ok := conn.MetadataString(ctx, KeyFormat)
	if !ok {
		return m, fmt.Errorf("%w: %s", ErrMissingMetadata, KeyFormat)
	}
	format, err := ParseFormat(raw)
	if err != nil {
		return m, err
	}

	m.MinZoom = minZoom
	m.MaxZoom = maxZoom
	m.Format = format
	return m, nil
}
