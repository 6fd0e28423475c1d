package tilefs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// Depth classifies a path by how many tile coordinates it carries.
type Depth int

const (
	DepthRoot   Depth = iota // "/"
	DepthZoom                // "/<zoom>"
	DepthColumn              // "/<zoom>/<column>"
	DepthTile                // "/<zoom>/<column>/<row>.<ext>"
)

func (d Depth) String() string {
	switch d {
	case DepthRoot:
		return "root"
	case DepthZoom:
		return "zoom-dir"
	case DepthColumn:
		return "column-dir"
	case DepthTile:
		return "tile-file"
	}
	return fmt.Sprintf("Depth(%d)", int(d))
}

// Path is a parsed filesystem path. Row is the exposed (top-down) row; it
// is converted to a stored row only when the store is queried.
type Path struct {
	Depth  Depth
	Zoom   int
	Column int
	Row    int
	Ext    string // extension on the row component, without the dot
}

// ParsePath classifies p. Components are read left to right and parsing
// stops at the first one that is missing or not a number, so "/3/x" is a
// zoom directory just like "/3". p must start with '/'.
//
// Numbers that parse but fall outside the grid at their zoom are
// ErrOutOfRange. Components below a tile are ErrTrailingComponent.
func ParsePath(p string) (Path, error) {
	var out Path
	if !strings.HasPrefix(p, "/") {
		return out, fmt.Errorf("%w: %q", ErrMalformedPath, p)
	}

	parts := strings.Split(p[1:], "/")

	zoom, ok := parseDecimal(parts[0])
	if !ok {
		return out, nil
	}
	if mbtiles.GridSize(zoom) == 0 {
		return out, fmt.Errorf("%w: zoom %d", ErrOutOfRange, zoom)
	}
	out.Depth, out.Zoom = DepthZoom, zoom
	if len(parts) < 2 {
		return out, nil
	}

	column, ok := parseDecimal(parts[1])
	if !ok {
		return out, nil
	}
	if column >= mbtiles.GridSize(zoom) {
		return out, fmt.Errorf("%w: column %d at zoom %d", ErrOutOfRange, column, zoom)
	}
	out.Depth, out.Column = DepthColumn, column
	if len(parts) < 3 {
		return out, nil
	}

	rowPart, ext, _ := strings.Cut(parts[2], ".")
	row, ok := parseDecimal(rowPart)
	if !ok {
		return out, nil
	}
	if row >= mbtiles.GridSize(zoom) {
		return out, fmt.Errorf("%w: row %d at zoom %d", ErrOutOfRange, row, zoom)
	}
	out.Depth, out.Row, out.Ext = DepthTile, row, ext

	for _, extra := range parts[3:] {
		if extra != "" {
			return out, fmt.Errorf("%w: %q", ErrTrailingComponent, p)
		}
	}
	return out, nil
}

// parseDecimal accepts a non-empty run of ASCII digits only, so signs,
// spaces and hex prefixes are all treated as "absent". Leading zeros are
// absent too, keeping one name per number: "01" is not "1".
func parseDecimal(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Child returns the path one level below p named name.
func (p Path) Child(name string) (Path, error) {
	if p.Depth == DepthRoot {
		return ParsePath("/" + name)
	}
	return ParsePath(p.String() + "/" + name)
}

// String renders p in canonical form, with the extension when one was given.
func (p Path) String() string {
	switch p.Depth {
	case DepthZoom:
		return fmt.Sprintf("/%d", p.Zoom)
	case DepthColumn:
		return fmt.Sprintf("/%d/%d", p.Zoom, p.Column)
	case DepthTile:
		if p.Ext == "" {
			return fmt.Sprintf("/%d/%d/%d", p.Zoom, p.Column, p.Row)
		}
		return fmt.Sprintf("/%d/%d/%d.%s", p.Zoom, p.Column, p.Row, p.Ext)
	}
	return "/"
}

// TileName is the directory entry name for an exposed row.
func TileName(exposedRow int, ext string) string {
	return strconv.Itoa(exposedRow) + "." + ext
}
