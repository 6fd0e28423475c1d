package mbtiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/dendrascience/mbtiles-fuse/internal/logging"
	_ "modernc.org/sqlite" // sqlite driver
)

const (
	queryMetadata   = "SELECT value FROM metadata WHERE name = ?"
	queryTileData   = "SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?"
	queryTileLength = "SELECT COALESCE(length(CAST(tile_data AS BLOB)), 0) FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?"
	queryZoomLevels = "SELECT DISTINCT zoom_level FROM tiles ORDER BY zoom_level"
	queryColumns    = "SELECT DISTINCT tile_column FROM tiles WHERE zoom_level = ? ORDER BY tile_column"
	queryRows       = "SELECT tile_row FROM tiles WHERE zoom_level = ? AND tile_column = ? ORDER BY tile_row"
	queryZoomStats  = "SELECT zoom_level, COUNT(*), COALESCE(SUM(length(CAST(tile_data AS BLOB))), 0) FROM tiles GROUP BY zoom_level ORDER BY zoom_level"
	queryAllTiles   = "SELECT zoom_level, tile_column, tile_row, tile_data FROM tiles ORDER BY zoom_level, tile_column, tile_row"
)

// Store knows where an archive lives. It holds no open handle; every caller
// takes its own connection with Connect and closes it before returning.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a Store for the archive at path. A nil logger discards
// all diagnostics.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the archive file path.
func (s *Store) Path() string {
	return s.path
}

// Logger returns the logger queries report to.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}

// Connect opens a read-only connection to the archive. The caller must Close it.
func (s *Store) Connect(ctx context.Context) (*Conn, error) {
	db, err := sql.Open("sqlite", fileURI(s.path, "ro"))
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", s.path, err)
	}
	db.SetMaxOpenConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping archive %s: %w", s.path, err)
	}

	return &Conn{db: db, logger: s.logger}, nil
}

var uriEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// fileURI builds a SQLite URI filename so the driver honours the open mode
// and does not mistake a '?' in the path for the start of its parameters.
func fileURI(path, mode string) string {
	return "file:" + uriEscaper.Replace(path) + "?mode=" + mode
}

// Conn is a single read-only connection scoped to one filesystem call.
// Query failures are logged and reported as absent values, never as errors.
type Conn struct {
	db     *sql.DB
	logger *slog.Logger
}

// Close releases the connection.
func (c *Conn) Close() error {
	err := c.db.Close()
	if err != nil {
		c.logger.Error("close archive connection", "error", err)
	}
	return err
}

// MetadataString returns the metadata value stored under key.
func (c *Conn) MetadataString(ctx context.Context, key string) (string, bool) {
	var v sql.NullString
	if !c.queryRow(ctx, queryMetadata, []any{key}, &v) {
		return "", false
	}
	if !v.Valid {
		c.logger.Log(ctx, logging.LevelTrace, "metadata value is null", "key", key)
		return "", false
	}
	return v.String, true
}

// MetadataInt returns the metadata value stored under key as an integer.
// Values that are not whole numbers are absent; "3.0" is accepted.
func (c *Conn) MetadataInt(ctx context.Context, key string) (int, bool) {
	s, ok := c.MetadataString(ctx, key)
	if !ok {
		return 0, false
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && isWhole(f) {
		return int(f), true
	}
	c.logger.Warn("metadata value is not an integer", "key", key, "value", s)
	return 0, false
}

// isWhole accepts finite integral values small enough to convert to int
// without loss, such as "3.0".
func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) <= math.MaxInt32
}

// TileData returns the stored blob for addr exactly as the archive holds it.
func (c *Conn) TileData(ctx context.Context, addr TileAddress) ([]byte, bool) {
	var data []byte
	if !c.queryRow(ctx, queryTileData, tileArgs(addr), &data) {
		return nil, false
	}
	if data == nil {
		data = []byte{}
	}
	return data, true
}

// TileLength returns the stored byte length of the blob for addr. For
// compressed vector tiles this is the compressed length.
func (c *Conn) TileLength(ctx context.Context, addr TileAddress) (int, bool) {
	var n int
	if !c.queryRow(ctx, queryTileLength, tileArgs(addr), &n) {
		return 0, false
	}
	return n, true
}

// ZoomLevels lists the distinct zoom levels present in the tiles table.
func (c *Conn) ZoomLevels(ctx context.Context) []int {
	return c.queryInts(ctx, queryZoomLevels)
}

// Columns lists the distinct columns present at zoom.
func (c *Conn) Columns(ctx context.Context, zoom int) []int {
	return c.queryInts(ctx, queryColumns, zoom)
}

// Rows lists the stored rows present at (zoom, column).
func (c *Conn) Rows(ctx context.Context, zoom, column int) []int {
	return c.queryInts(ctx, queryRows, zoom, column)
}

// ZoomStat summarizes the tiles stored at one zoom level.
type ZoomStat struct {
	Zoom  int
	Tiles int
	Bytes int64
}

// ZoomStats returns per-zoom tile counts and stored byte totals.
func (c *Conn) ZoomStats(ctx context.Context) []ZoomStat {
	rows, err := c.db.QueryContext(ctx, queryZoomStats)
	if err != nil {
		c.logger.Error("query failed", "query", queryZoomStats, "error", err)
		return nil
	}
	defer rows.Close()

	var stats []ZoomStat
	for rows.Next() {
		var st ZoomStat
		if err := rows.Scan(&st.Zoom, &st.Tiles, &st.Bytes); err != nil {
			c.logger.Error("scan failed", "query", queryZoomStats, "error", err)
			return nil
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		c.logger.Error("query failed", "query", queryZoomStats, "error", err)
		return nil
	}
	return stats
}

// EachTile calls fn for every tile in the archive, in zoom/column/row order.
// Unlike the lookup queries it reports failures, since callers walking the
// whole archive need to know the walk was incomplete. Iteration stops at the
// first error fn returns.
func (c *Conn) EachTile(ctx context.Context, fn func(TileAddress, []byte) error) error {
	rows, err := c.db.QueryContext(ctx, queryAllTiles)
	if err != nil {
		return fmt.Errorf("list tiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			addr TileAddress
			data []byte
		)
		if err := rows.Scan(&addr.Zoom, &addr.Column, &addr.Row, &data); err != nil {
			return fmt.Errorf("scan tile: %w", err)
		}
		if err := fn(addr, data); err != nil {
			return err
		}
	}
	return rows.Err()
}

func tileArgs(addr TileAddress) []any {
	return []any{addr.Zoom, addr.Column, addr.Row}
}

// queryRow scans a single value into dest and reports whether a row was found.
func (c *Conn) queryRow(ctx context.Context, query string, args []any, dest any) bool {
	err := c.db.QueryRowContext(ctx, query, args...).Scan(dest)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		c.logger.Log(ctx, logging.LevelTrace, "no row", "query", query, "args", args)
		return false
	case err != nil:
		c.logger.Error("query failed", "query", query, "args", args, "error", err)
		return false
	}
	return true
}

// queryInts collects a single integer column. Any failure yields an empty result.
func (c *Conn) queryInts(ctx context.Context, query string, args ...any) []int {
	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		c.logger.Error("query failed", "query", query, "args", args, "error", err)
		return nil
	}
	defer rows.Close()

	var values []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			c.logger.Error("scan failed", "query", query, "args", args, "error", err)
			return nil
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		c.logger.Error("query failed", "query", query, "args", args, "error", err)
		return nil
	}
	return values
}
