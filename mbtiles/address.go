package mbtiles

import "fmt"

// MaxZoom is the deepest zoom level the package will address. 2^30 tiles
// per axis keeps every row and column inside a 32-bit int.
const MaxZoom = 30

// TileAddress identifies one tile as the archive stores it. Row is the
// stored (bottom-up) row, never the row a filesystem user sees.
type TileAddress struct {
	Zoom   int
	Column int
	Row    int
}

// GridSize returns the number of columns (and rows) at zoom, or 0 when zoom
// is outside [0, MaxZoom].
func GridSize(zoom int) int {
	if zoom < 0 || zoom > MaxZoom {
		return 0
	}
	return 1 << zoom
}

// InvertRow maps a row between the stored and exposed numbering at zoom.
// Applying it twice returns the original row.
func InvertRow(zoom, row int) int {
	return GridSize(zoom) - 1 - row
}

// FromExposed builds the stored address for a tile seen at exposed row.
func FromExposed(zoom, column, exposedRow int) TileAddress {
	return TileAddress{Zoom: zoom, Column: column, Row: InvertRow(zoom, exposedRow)}
}

// ExposedRow returns the top-down row for the address.
func (a TileAddress) ExposedRow() int {
	return InvertRow(a.Zoom, a.Row)
}

// Valid reports whether column and row fall inside the grid at the address's zoom.
func (a TileAddress) Valid() bool {
	n := GridSize(a.Zoom)
	return n > 0 &&
		a.Column >= 0 && a.Column < n &&
		a.Row >= 0 && a.Row < n
}

// Check returns ErrInvalidAddress when the address is not Valid.
func (a TileAddress) Check() error {
	if !a.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidAddress, a)
	}
	return nil
}

func (a TileAddress) String() string {
	return fmt.Sprintf("%d/%d/%d", a.Zoom, a.Column, a.Row)
}
