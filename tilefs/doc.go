// Package tilefs presents an MBTiles archive as a read-only directory tree.
//
// The tree has exactly four depths:
//
//	/                         zoom levels
//	/<zoom>                   columns present at that zoom
//	/<zoom>/<column>          one file per row, named <row>.<ext>
//	/<zoom>/<column>/<row>.<ext>
//
// Rows in paths count from the top of the grid while the archive counts
// from the bottom; the conversion happens only when the archive is queried.
//
// Adapter implements the filesystem contract (stat, list, open, read) over
// plain path strings. FS binds an Adapter to bazil.org/fuse. Every operation
// opens its own archive connection, so nothing is cached between calls and
// concurrent kernel requests share no mutable state.
package tilefs
