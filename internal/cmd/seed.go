package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/taigrr/colorhash"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// seedMaxZoom bounds the generated pyramid; zoom z holds 4^z tiles.
const seedMaxZoom = 8

type seedOptions struct {
	format   string
	envelope string
	minZoom  int
	maxZoom  int
	tileSize int
	verbose  bool
}

// NewSeedCmd creates and returns the seed subcommand.
func NewSeedCmd() *cobra.Command {
	var opts seedOptions

	cmd := &cobra.Command{
		Use:   "seed OUTPUT",
		Short: "Generate a synthetic MBTiles archive for testing",
		Long: `Generate an MBTiles archive holding a complete tile pyramid.

Raster tiles are solid squares whose colour is derived from the tile address,
so neighbouring tiles are easy to tell apart when the archive is mounted.
Vector tiles hold a short text payload wrapped in a gzip or zlib envelope.
Any existing file at OUTPUT is replaced.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "png", "Tile format: png, jpg or pbf")
	cmd.Flags().StringVar(&opts.envelope, "envelope", "gzip", "Compression envelope for pbf tiles: gzip or zlib")
	cmd.Flags().IntVar(&opts.minZoom, "min-zoom", 0, "Lowest zoom level to generate")
	cmd.Flags().IntVar(&opts.maxZoom, "max-zoom", 3, fmt.Sprintf("Highest zoom level to generate (at most %d)", seedMaxZoom))
	cmd.Flags().IntVar(&opts.tileSize, "tile-size", 256, "Raster tile width and height in pixels")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func runSeed(ctx context.Context, out io.Writer, output string, opts seedOptions) error {
	format, err := mbtiles.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	envelope := mbtiles.Envelope(opts.envelope)
	if envelope != mbtiles.EnvelopeGzip && envelope != mbtiles.EnvelopeZlib {
		return fmt.Errorf("%w: %q", mbtiles.ErrUnknownEnvelope, opts.envelope)
	}
	if opts.minZoom < 0 || opts.maxZoom > seedMaxZoom || opts.minZoom > opts.maxZoom {
		return fmt.Errorf("zoom range %d-%d must lie within 0-%d", opts.minZoom, opts.maxZoom, seedMaxZoom)
	}
	if opts.tileSize < 1 {
		return fmt.Errorf("tile size must be positive, got %d", opts.tileSize)
	}

	w, err := mbtiles.Create(ctx, output)
	if err != nil {
		return err
	}

	meta := mbtiles.Metadata{MinZoom: opts.minZoom, MaxZoom: opts.maxZoom, Format: format}
	created, err := writeSeed(ctx, w, out, meta, envelope, opts)
	if err != nil {
		return errors.Join(err, w.Abort())
	}
	if err := w.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Created %s with %d %s tiles (zoom %d-%d)\n", output, created, format, opts.minZoom, opts.maxZoom)
	return nil
}

// writeSeed fills w with the metadata and every tile of the pyramid and
// returns the number of tiles written.
func writeSeed(ctx context.Context, w *mbtiles.Writer, out io.Writer, meta mbtiles.Metadata, envelope mbtiles.Envelope, opts seedOptions) (int, error) {
	if err := w.SetMetadataAll(ctx, meta); err != nil {
		return 0, err
	}
	if err := w.SetMetadata(ctx, "name", "seed-"+uuid.NewString()); err != nil {
		return 0, err
	}

	created := 0
	for z := meta.MinZoom; z <= meta.MaxZoom; z++ {
		n := mbtiles.GridSize(z)
		for c := 0; c < n; c++ {
			for r := 0; r < n; r++ {
				if err := ctx.Err(); err != nil {
					return created, err
				}
				addr := mbtiles.TileAddress{Zoom: z, Column: c, Row: r}
				data, err := seedTile(addr, meta.Format, envelope, opts.tileSize)
				if err != nil {
					return created, fmt.Errorf("tile %s: %w", addr, err)
				}
				if err := w.PutTile(ctx, addr, data); err != nil {
					return created, err
				}
				created++
			}
		}
		if opts.verbose {
			fmt.Fprintf(out, "Zoom %d: %d tiles\n", z, n*n)
		}
	}
	return created, nil
}

// seedTile renders the tile for addr. Colours and payloads depend only on
// the address, so two runs with the same options write identical tiles.
func seedTile(addr mbtiles.TileAddress, format mbtiles.Format, envelope mbtiles.Envelope, size int) ([]byte, error) {
	if format.Vector() {
		payload := fmt.Sprintf("tile %s colour %s\n", addr, hexColour(tileColour(addr)))
		return mbtiles.Compress(envelope, []byte(payload))
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: tileColour(addr)}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	var err error
	switch format {
	case mbtiles.FormatJPG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75})
	default:
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func tileColour(addr mbtiles.TileAddress) color.RGBA {
	h := uint32(colorhash.HashString(addr.String()))
	return color.RGBA{R: uint8(h >> 16), G: uint8(h >> 8), B: uint8(h), A: 0xff}
}

func hexColour(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
