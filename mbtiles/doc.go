// Package mbtiles reads tiles and metadata out of an MBTiles archive.
//
// An MBTiles archive is a single SQLite file holding a tile pyramid: a
// metadata key/value table and a tiles table keyed by zoom level, column and
// row. Rows are stored bottom-up (TMS convention), so row 0 is the southern
// edge of the grid.
//
// Key Components:
//
// Addressing:
//   - TileAddress holds a zoom/column/stored-row triple
//   - InvertRow converts between stored (bottom-up) and exposed (top-down) rows
//
// Store access:
//   - Store opens one read-only connection per call through Connect
//   - Conn runs the narrow set of queries the filesystem needs and reports
//     missing rows and failed queries alike as "absent"
//
// Metadata:
//   - LoadMetadata resolves minzoom, maxzoom and format once at mount time
//
// Compression:
//   - Inflate recovers vector tiles stored in a gzip or zlib envelope
//
// Writing:
//   - Writer creates new archives for the seed command and for test fixtures
package mbtiles
