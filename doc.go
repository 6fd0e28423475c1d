// Command mbtilesfs mounts an MBTiles archive as a read-only FUSE filesystem.
//
// Tiles are exposed as /<zoom>/<column>/<row>.<ext> with rows counted from
// the top of the grid, so a directory served over HTTP answers the same URLs
// as an XYZ tile server. Vector tiles are inflated on read.
//
// Usage:
//
//	mbtilesfs mount [--computed-zoom] [--log-level LEVEL] [--log-sink PATH] MOUNTPOINT ARCHIVE
//
// See "mbtilesfs --help" for the remaining subcommands.
package main
