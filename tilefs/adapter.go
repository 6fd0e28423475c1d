package tilefs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"syscall"

	"github.com/dendrascience/mbtiles-fuse/internal/logging"
	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

const (
	dirMode  = os.ModeDir | 0o555
	fileMode = os.FileMode(0o444)
)

// Attr is what Stat reports. Nothing beyond mode, link count and size is
// exposed.
type Attr struct {
	Mode  os.FileMode
	Nlink uint32
	Size  uint64
}

// IsDir reports whether the attributes describe a directory.
func (a Attr) IsDir() bool {
	return a.Mode.IsDir()
}

// Entry is one name in a directory listing.
type Entry struct {
	Name string
	Dir  bool
}

// Adapter serves the four filesystem operations over one archive. Its
// fields are set once by New and only read afterwards, so one Adapter may
// be shared by any number of concurrent callers.
type Adapter struct {
	store  *mbtiles.Store
	meta   mbtiles.Metadata
	zooms  ZoomRange
	policy ZoomPolicy
	logger *slog.Logger
}

// Open connects to the archive at path, resolves its metadata and returns an
// Adapter ready to serve. Any error here means the archive cannot be mounted.
func Open(ctx context.Context, path string, policy ZoomPolicy, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	store := mbtiles.NewStore(path, logger)

	conn, err := store.Connect(ctx)
	if err != nil {
		logger.Error("open archive", "archive", path, "error", err)
		return nil, err
	}
	defer conn.Close()

	meta, err := mbtiles.LoadMetadata(ctx, conn)
	if err != nil {
		logger.Error("load archive metadata", "archive", path, "error", err)
		return nil, fmt.Errorf("archive %s: %w", path, err)
	}

	logger.Debug("archive metadata loaded",
		"archive", path,
		"minzoom", meta.MinZoom,
		"maxzoom", meta.MaxZoom,
		"format", meta.Format,
		"zoom_policy", policy)

	return New(store, meta, policy, logger), nil
}

// New builds an Adapter from metadata that has already been resolved.
func New(store *mbtiles.Store, meta mbtiles.Metadata, policy ZoomPolicy, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{
		store:  store,
		meta:   meta,
		zooms:  NewZoomRange(policy, meta, store),
		policy: policy,
		logger: logger,
	}
}

// Metadata returns the archive metadata resolved at mount.
func (a *Adapter) Metadata() mbtiles.Metadata {
	return a.meta
}

// Policy returns the zoom policy the root directory uses.
func (a *Adapter) Policy() ZoomPolicy {
	return a.policy
}

// Stat describes the entry at p. Directories are reported for every
// well-formed path above tile depth; tiles must exist in the archive.
func (a *Adapter) Stat(ctx context.Context, p string) (Attr, error) {
	path, err := ParsePath(p)
	if err != nil {
		return Attr{}, err
	}
	return a.stat(ctx, path)
}

// ReadDir lists the directory at p, starting with "." and "..".
func (a *Adapter) ReadDir(ctx context.Context, p string) ([]Entry, error) {
	path, err := ParsePath(p)
	if err != nil {
		return nil, err
	}
	return a.readDir(ctx, path)
}

// Open validates that p names a tile and flags ask for read-only access.
// It does not check that the tile exists; Read and Stat do.
func (a *Adapter) Open(p string, flags int) error {
	path, err := ParsePath(p)
	if err != nil {
		return err
	}
	return a.open(path, flags)
}

// Read returns up to size bytes of the tile at p starting at offset. A
// missing tile, or an offset at or past its end, yields no bytes and no error.
func (a *Adapter) Read(ctx context.Context, p string, size int, offset int64) ([]byte, error) {
	path, err := ParsePath(p)
	if err != nil {
		return nil, err
	}
	return a.read(ctx, path, size, offset)
}

func (a *Adapter) stat(ctx context.Context, path Path) (Attr, error) {
	a.logger.Log(ctx, logging.LevelTrace, "stat", "path", path, "depth", path.Depth)

	if path.Depth != DepthTile {
		return Attr{Mode: dirMode, Nlink: 2}, nil
	}
	if !a.extMatches(path) {
		return Attr{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	conn, ok := a.connect(ctx)
	if !ok {
		return Attr{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	defer conn.Close()

	size, ok := a.tileSize(ctx, conn, a.stored(path))
	if !ok {
		return Attr{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return Attr{Mode: fileMode, Nlink: 1, Size: uint64(size)}, nil
}

func (a *Adapter) readDir(ctx context.Context, path Path) ([]Entry, error) {
	a.logger.Log(ctx, logging.LevelTrace, "readdir", "path", path, "depth", path.Depth)

	entries := []Entry{{Name: ".", Dir: true}, {Name: "..", Dir: true}}

	switch path.Depth {
	case DepthRoot:
		for _, z := range a.zooms.Levels(ctx) {
			if mbtiles.GridSize(z) == 0 {
				a.logger.Warn("skipping zoom level outside the grid", "zoom", z)
				continue
			}
			entries = append(entries, Entry{Name: strconv.Itoa(z), Dir: true})
		}
		return entries, nil

	case DepthZoom:
		conn, ok := a.connect(ctx)
		if !ok {
			return entries, nil
		}
		defer conn.Close()

		n := mbtiles.GridSize(path.Zoom)
		for _, c := range conn.Columns(ctx, path.Zoom) {
			if c < 0 || c >= n {
				a.logger.Warn("skipping column outside the grid", "zoom", path.Zoom, "column", c)
				continue
			}
			entries = append(entries, Entry{Name: strconv.Itoa(c), Dir: true})
		}
		return entries, nil

	case DepthColumn:
		conn, ok := a.connect(ctx)
		if !ok {
			return entries, nil
		}
		defer conn.Close()

		ext := a.meta.Format.Ext()
		for _, row := range conn.Rows(ctx, path.Zoom, path.Column) {
			addr := mbtiles.TileAddress{Zoom: path.Zoom, Column: path.Column, Row: row}
			if !addr.Valid() {
				a.logger.Warn("skipping row outside the grid", "tile", addr)
				continue
			}
			entries = append(entries, Entry{Name: TileName(addr.ExposedRow(), ext)})
		}
		return entries, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotDirectory, path)
}

func (a *Adapter) open(path Path, flags int) error {
	a.logger.Log(context.Background(), logging.LevelTrace, "open", "path", path, "flags", flags)

	if path.Depth != DepthTile {
		return fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if !a.extMatches(path) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if flags&syscall.O_ACCMODE != syscall.O_RDONLY {
		return fmt.Errorf("%w: %s", ErrPermission, path)
	}
	return nil
}

func (a *Adapter) read(ctx context.Context, path Path, size int, offset int64) ([]byte, error) {
	a.logger.Log(ctx, logging.LevelTrace, "read", "path", path, "size", size, "offset", offset)

	if path.Depth != DepthTile {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, path)
	}
	if size <= 0 || offset < 0 || !a.extMatches(path) {
		return nil, nil
	}

	conn, ok := a.connect(ctx)
	if !ok {
		return nil, nil
	}
	defer conn.Close()

	tile, ok := a.tile(ctx, conn, a.stored(path))
	if !ok || offset >= int64(len(tile)) {
		return nil, nil
	}

	end := offset + int64(size)
	if end > int64(len(tile)) {
		end = int64(len(tile))
	}
	return tile[offset:end], nil
}

// stored converts the exposed row in path to the archive's row numbering.
func (a *Adapter) stored(path Path) mbtiles.TileAddress {
	return mbtiles.FromExposed(path.Zoom, path.Column, path.Row)
}

func (a *Adapter) extMatches(path Path) bool {
	return path.Ext == "" || path.Ext == a.meta.Format.Ext()
}

func (a *Adapter) connect(ctx context.Context) (*mbtiles.Conn, bool) {
	conn, err := a.store.Connect(ctx)
	if err != nil {
		a.logger.Error("connect to archive", "archive", a.store.Path(), "error", err)
		return nil, false
	}
	return conn, true
}

// tile returns the logical tile bytes, inflating vector payloads. A payload
// that does not inflate is treated as missing.
func (a *Adapter) tile(ctx context.Context, conn *mbtiles.Conn, addr mbtiles.TileAddress) ([]byte, bool) {
	blob, ok := conn.TileData(ctx, addr)
	if !ok {
		return nil, false
	}
	if !a.meta.Format.Vector() {
		return blob, true
	}

	data, err := mbtiles.InflateBytes(blob)
	if err != nil {
		a.logger.Warn("inflate vector tile", "tile", addr, "stored_bytes", len(blob), "error", err)
		return nil, false
	}
	return data, true
}

// tileSize returns the logical length. Raster tiles are stored verbatim so
// the stored length is enough; vector tiles must be inflated to be measured.
func (a *Adapter) tileSize(ctx context.Context, conn *mbtiles.Conn, addr mbtiles.TileAddress) (int, bool) {
	if a.meta.Format.Vector() {
		data, ok := a.tile(ctx, conn, addr)
		return len(data), ok
	}
	return conn.TileLength(ctx, addr)
}
