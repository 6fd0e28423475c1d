package tilefs

import (
	"context"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// ZoomPolicy selects how the root directory decides which zoom levels exist.
type ZoomPolicy int

const (
	// ZoomFromMetadata lists the declared [minzoom, maxzoom] interval
	// without touching the tiles table.
	ZoomFromMetadata ZoomPolicy = iota
	// ZoomComputed lists the zoom levels actually present in the tiles
	// table, queried on every root listing.
	ZoomComputed
)

func (p ZoomPolicy) String() string {
	if p == ZoomComputed {
		return "computed"
	}
	return "metadata"
}

// ZoomRange yields the zoom levels shown in the root directory.
type ZoomRange interface {
	Levels(ctx context.Context) []int
}

// NewZoomRange builds the resolver for policy.
func NewZoomRange(policy ZoomPolicy, meta mbtiles.Metadata, store *mbtiles.Store) ZoomRange {
	if policy == ZoomComputed {
		return computedZoomRange{store: store}
	}
	return metadataZoomRange{min: meta.MinZoom, max: meta.MaxZoom}
}

type metadataZoomRange struct {
	min, max int
}

// Levels enumerates the declared interval, clamped to the addressable zooms.
func (r metadataZoomRange) Levels(context.Context) []int {
	lo, hi := max(r.min, 0), min(r.max, mbtiles.MaxZoom)
	if lo > hi {
		return nil
	}
	levels := make([]int, 0, hi-lo+1)
	for z := lo; z <= hi; z++ {
		levels = append(levels, z)
	}
	return levels
}

type computedZoomRange struct {
	store *mbtiles.Store
}

// Levels scans the tiles table through a connection of its own.
func (r computedZoomRange) Levels(ctx context.Context) []int {
	conn, err := r.store.Connect(ctx)
	if err != nil {
		r.store.Logger().Error("list zoom levels", "archive", r.store.Path(), "error", err)
		return nil
	}
	defer conn.Close()

	return conn.ZoomLevels(ctx)
}
