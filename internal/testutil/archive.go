// Package testutil builds MBTiles fixtures for tests.
package testutil

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// Archive describes a fixture. Tiles are keyed by stored address.
type Archive struct {
	Metadata map[string]string
	Tiles    map[mbtiles.TileAddress][]byte
}

// Meta returns the three required metadata keys.
func Meta(minZoom, maxZoom int, format mbtiles.Format) map[string]string {
	return map[string]string{
		mbtiles.KeyMinZoom: strconv.Itoa(minZoom),
		mbtiles.KeyMaxZoom: strconv.Itoa(maxZoom),
		mbtiles.KeyFormat:  string(format),
	}
}

// Write creates the archive in a temp dir and returns its path.
func Write(t testing.TB, a Archive) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.mbtiles")
	ctx := context.Background()

	w, err := mbtiles.Create(ctx, path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	for k, v := range a.Metadata {
		if err := w.SetMetadata(ctx, k, v); err != nil {
			t.Fatalf("fixture metadata: %v", err)
		}
	}
	for addr, data := range a.Tiles {
		if err := w.PutTile(ctx, addr, data); err != nil {
			t.Fatalf("fixture tile: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

// Compressed wraps data in env or fails the test.
func Compressed(t testing.TB, env mbtiles.Envelope, data []byte) []byte {
	t.Helper()

	out, err := mbtiles.Compress(env, data)
	if err != nil {
		t.Fatalf("compress fixture: %v", err)
	}
	return out
}
