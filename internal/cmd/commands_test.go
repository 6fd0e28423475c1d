package cmd

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mbtiles-fuse/internal/testutil"
	"github.com/dendrascience/mbtiles-fuse/mbtiles"
	"github.com/dendrascience/mbtiles-fuse/tilefs"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSeedValidateExport(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "seed.mbtiles")

	out, err := execute(t, "seed", archive, "--max-zoom", "2", "--tile-size", "8")
	require.NoError(t, err, out)
	assert.Contains(t, out, "with 21 png tiles")

	out, err = execute(t, "validate", archive)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Tiles checked: 21")
	assert.Contains(t, out, "Problems: 0")

	out, err = execute(t, "stats", archive)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Format:  png")
	assert.Regexp(t, `total\s+21\s+\d+`, out)

	exported := filepath.Join(dir, "tree")
	out, err = execute(t, "export", archive, exported, "--jobs", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 21 tiles")

	// Stored row 0 at zoom 2 is exposed as row 3.
	f, err := os.Open(filepath.Join(exported, "2", "1", "3.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 8, img.Bounds().Dx())

	r, g, b, _ := img.At(0, 0).RGBA()
	want := tileColour(mbtiles.TileAddress{Zoom: 2, Column: 1, Row: 0})
	assert.Equal(t, [3]uint8{want.R, want.G, want.B}, [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(b >> 8)})
}

func TestSeedVectorArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "vector.mbtiles")

	out, err := execute(t, "seed", archive, "--format", "pbf", "--envelope", "zlib", "--min-zoom", "1", "--max-zoom", "1")
	require.NoError(t, err, out)

	adapter, err := tilefs.Open(context.Background(), archive, tilefs.ZoomFromMetadata, nil)
	require.NoError(t, err)

	data, err := readTile(context.Background(), adapter, "/1/0/0.pbf")
	require.NoError(t, err)
	assert.Contains(t, string(data), "tile 1/0/1 colour #")

	out, err = execute(t, "validate", archive, "--verbose")
	require.NoError(t, err, out)
	assert.Contains(t, out, "format pbf, zoom 1-1")
}

func TestSeedRejectsBadOptions(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bad.mbtiles")

	tests := [][]string{
		{"--format", "webp"},
		{"--format", "pbf", "--envelope", "brotli"},
		{"--min-zoom", "3", "--max-zoom", "1"},
		{"--max-zoom", "12"},
		{"--tile-size", "0"},
	}
	for _, args := range tests {
		_, err := execute(t, append([]string{"seed", archive}, args...)...)
		assert.Error(t, err, "%v", args)
	}
}

// cancelOnWrite ends the seed run as soon as it reports progress.
type cancelOnWrite struct {
	bytes.Buffer
	cancel context.CancelFunc
}

func (w *cancelOnWrite) Write(p []byte) (int, error) {
	w.cancel()
	return w.Buffer.Write(p)
}

func TestSeedInterruptedLeavesNoArchive(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "interrupted.mbtiles")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := &cancelOnWrite{cancel: cancel}
	opts := seedOptions{format: "png", envelope: "gzip", minZoom: 0, maxZoom: 2, tileSize: 4, verbose: true}

	err := runSeed(ctx, out, archive, opts)
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, out.String(), "Zoom 0: 1 tiles")

	_, err = os.Stat(archive)
	assert.True(t, os.IsNotExist(err), "partial archive left behind: %v", err)
}

func TestValidateReportsProblems(t *testing.T) {
	archive := testutil.Write(t, testutil.Archive{
		Metadata: testutil.Meta(0, 1, mbtiles.FormatPBF),
		Tiles: map[mbtiles.TileAddress][]byte{
			{Zoom: 0, Column: 0, Row: 0}: testutil.Compressed(t, mbtiles.EnvelopeGzip, []byte("ok")),
			{Zoom: 1, Column: 5, Row: 0}: testutil.Compressed(t, mbtiles.EnvelopeGzip, []byte("off grid")),
			{Zoom: 3, Column: 0, Row: 0}: testutil.Compressed(t, mbtiles.EnvelopeZlib, []byte("too deep")),
			{Zoom: 1, Column: 0, Row: 0}: []byte("raw bytes"),
		},
	})

	out, err := execute(t, "validate", archive)
	require.ErrorIs(t, err, errInvalidArchive)
	assert.Contains(t, out, "Tiles checked: 4")
	assert.Contains(t, out, "Problems: 3")
	assert.Contains(t, out, "1/5/0: outside the tile grid")
	assert.Contains(t, out, "3/0/0: zoom outside declared range 0-1")
	assert.Contains(t, out, "1/0/0: vector payload does not inflate")
}

func TestValidateMissingMetadata(t *testing.T) {
	archive := testutil.Write(t, testutil.Archive{
		Metadata: map[string]string{"minzoom": "0", "format": "png"},
	})

	out, err := execute(t, "validate", archive)
	require.ErrorIs(t, err, errInvalidArchive)
	assert.Contains(t, out, "cannot be mounted")
}

func TestExportVerboseParallel(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "seed.mbtiles")

	out, err := execute(t, "seed", archive, "--max-zoom", "3", "--tile-size", "4")
	require.NoError(t, err, out)

	out, err = execute(t, "export", archive, filepath.Join(dir, "tree"), "--jobs", "8", "--verbose")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 85 tiles")
	for _, line := range []string{"/0/0: 1 tiles\n", "/3/7: 8 tiles\n"} {
		assert.Contains(t, out, line)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mbtilesfs version ")
	assert.Contains(t, out, "Package: mbtiles-fuse")
}

func TestExportComputedZoom(t *testing.T) {
	archive := testutil.Write(t, testutil.Archive{
		Metadata: testutil.Meta(0, 9, mbtiles.FormatJPG),
		Tiles: map[mbtiles.TileAddress][]byte{
			{Zoom: 2, Column: 1, Row: 1}: []byte("jpeg bytes"),
		},
	})
	exported := filepath.Join(t.TempDir(), "tree")

	out, err := execute(t, "export", archive, exported, "--computed-zoom", "--jobs", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 1 tiles")

	data, err := os.ReadFile(filepath.Join(exported, "2", "1", "2.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))
}
