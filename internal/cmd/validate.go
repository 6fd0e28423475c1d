package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// errInvalidArchive is returned once every problem has been printed.
var errInvalidArchive = errors.New("archive failed validation")

// NewValidateCmd creates and returns the validate subcommand.
func NewValidateCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "validate ARCHIVE",
		Short: "Check that an MBTiles archive can be mounted and served",
		Long: `Validate an MBTiles archive before mounting it.

Checks that minzoom, maxzoom and format are present and usable, that every
tile address fits the grid at its zoom level and lies inside the declared
zoom range, and that vector tiles inflate.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), args[0], verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every problem instead of the first few")

	return cmd
}

// maxReported caps the problems printed without --verbose.
const maxReported = 10

func runValidate(ctx context.Context, out io.Writer, archive string, verbose bool) error {
	store := mbtiles.NewStore(archive, nil)
	conn, err := store.Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	meta, err := mbtiles.LoadMetadata(ctx, conn)
	if err != nil {
		fmt.Fprintf(out, "Archive %s cannot be mounted:\n  - %v\n", archive, err)
		return errInvalidArchive
	}
	if verbose {
		fmt.Fprintf(out, "Validating %s (format %s, zoom %d-%d)\n", archive, meta.Format, meta.MinZoom, meta.MaxZoom)
	}

	var (
		problems []string
		tiles    int
	)
	err = conn.EachTile(ctx, func(addr mbtiles.TileAddress, data []byte) error {
		tiles++
		for _, p := range checkTile(meta, addr, data) {
			problems = append(problems, fmt.Sprintf("%s: %s", addr, p))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan tiles: %w", err)
	}

	fmt.Fprintf(out, "\nValidation complete:\n")
	fmt.Fprintf(out, "  Tiles checked: %d\n", tiles)
	fmt.Fprintf(out, "  Problems: %d\n", len(problems))

	if len(problems) == 0 {
		return nil
	}
	for i, p := range problems {
		if !verbose && i == maxReported {
			fmt.Fprintf(out, "  ... %d more (use --verbose)\n", len(problems)-i)
			break
		}
		fmt.Fprintf(out, "  - %s\n", p)
	}
	return errInvalidArchive
}

func checkTile(meta mbtiles.Metadata, addr mbtiles.TileAddress, data []byte) []string {
	var problems []string

	if err := addr.Check(); err != nil {
		problems = append(problems, "outside the tile grid")
	}
	if addr.Zoom < meta.MinZoom || addr.Zoom > meta.MaxZoom {
		problems = append(problems, fmt.Sprintf("zoom outside declared range %d-%d", meta.MinZoom, meta.MaxZoom))
	}
	if meta.Format.Vector() {
		if _, err := mbtiles.InflateBytes(data); err != nil {
			problems = append(problems, fmt.Sprintf("vector payload does not inflate: %v", err))
		}
	}
	return problems
}
