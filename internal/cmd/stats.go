package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dendrascience/mbtiles-fuse/mbtiles"
)

// NewStatsCmd creates and returns the stats subcommand.
func NewStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats ARCHIVE",
		Short: "Summarize the tiles held in an MBTiles archive",
		Long: `Print the archive metadata and, for every zoom level present in the
tiles table, the number of tiles and the bytes they occupy as stored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}
}

func runStats(ctx context.Context, out io.Writer, archive string) error {
	conn, err := mbtiles.NewStore(archive, nil).Connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	meta, err := mbtiles.LoadMetadata(ctx, conn)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Archive: %s\n", archive)
	fmt.Fprintf(out, "Format:  %s\n", meta.Format)
	fmt.Fprintf(out, "Zoom:    %d-%d (declared)\n\n", meta.MinZoom, meta.MaxZoom)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "zoom\ttiles\tbytes\t")

	var (
		tiles int
		bytes int64
	)
	for _, s := range conn.ZoomStats(ctx) {
		fmt.Fprintf(tw, "%d\t%d\t%d\t\n", s.Zoom, s.Tiles, s.Bytes)
		tiles += s.Tiles
		bytes += s.Bytes
	}
	fmt.Fprintf(tw, "total\t%d\t%d\t\n", tiles, bytes)
	return tw.Flush()
}
