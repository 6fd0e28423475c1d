package mbtiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
)

var schema = []string{
	"CREATE TABLE metadata (name TEXT, value TEXT)",
	"CREATE UNIQUE INDEX metadata_name ON metadata (name)",
	"CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)",
	"CREATE UNIQUE INDEX tile_index ON tiles (zoom_level, tile_column, tile_row)",
}

// Writer builds a new archive. It is used to generate sample archives and
// test fixtures; the filesystem itself never writes.
type Writer struct {
	path string
	db   *sql.DB
	tx   *sql.Tx
}

// Create makes a fresh archive at path, replacing any file already there.
// Writes are batched in one transaction until Close.
func Create(ctx context.Context, path string) (*Writer, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove existing archive: %w", err)
	}

	db, err := sql.Open("sqlite", fileURI(path, "rwc"))
	if err != nil {
		return nil, fmt.Errorf("create archive %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			_ = os.Remove(path)
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		_ = db.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("begin archive txn: %w", err)
	}

	return &Writer{path: path, db: db, tx: tx}, nil
}

// SetMetadata stores value under key, replacing an earlier value.
func (w *Writer) SetMetadata(ctx context.Context, key, value string) error {
	_, err := w.tx.ExecContext(ctx, "INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// SetMetadataAll stores the three keys LoadMetadata needs.
func (w *Writer) SetMetadataAll(ctx context.Context, m Metadata) error {
	pairs := [][2]string{
		{KeyMinZoom, fmt.Sprint(m.MinZoom)},
		{KeyMaxZoom, fmt.Sprint(m.MaxZoom)},
		{KeyFormat, string(m.Format)},
	}
	for _, p := range pairs {
		if err := w.SetMetadata(ctx, p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

// PutTile stores data at addr. Row is the stored row.
func (w *Writer) PutTile(ctx context.Context, addr TileAddress, data []byte) error {
	_, err := w.tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)",
		addr.Zoom, addr.Column, addr.Row, data)
	if err != nil {
		return fmt.Errorf("put tile %s: %w", addr, err)
	}
	return nil
}

// Close commits everything written and closes the archive.
func (w *Writer) Close() error {
	if err := w.tx.Commit(); err != nil {
		_ = w.db.Close()
		return fmt.Errorf("commit archive: %w", err)
	}
	return w.db.Close()
}

// Abort discards everything written, closes the archive and removes the
// file, so a failed build leaves nothing behind.
func (w *Writer) Abort() error {
	err := w.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		// Already rolled back when the context passed to Create ended.
		err = nil
	}
	if cerr := w.db.Close(); err == nil {
		err = cerr
	}
	if rerr := os.Remove(w.path); rerr != nil && !os.IsNotExist(rerr) && err == nil {
		err = rerr
	}
	if err != nil {
		return fmt.Errorf("abort archive %s: %w", w.path, err)
	}
	return nil
}
