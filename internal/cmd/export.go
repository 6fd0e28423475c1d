package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dendrascience/mbtiles-fuse/tilefs"
)

// exportChunk is the read size used when copying a tile, matching what the
// kernel typically asks a FUSE filesystem for.
const exportChunk = 128 << 10

// NewExportCmd creates and returns the export subcommand.
func NewExportCmd() *cobra.Command {
	var (
		computedZoom bool
		jobs         int
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "export ARCHIVE OUTPUT_DIR",
		Short: "Write the mounted view of an archive to a plain directory tree",
		Long: `Export every tile of an MBTiles archive to OUTPUT_DIR/<zoom>/<column>/<row>.<ext>.

The tree is produced through the same code that serves a mount, so rows are
counted from the top and vector tiles are written inflated. Columns are
exported in parallel.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := tilefs.ZoomFromMetadata
			if computedZoom {
				policy = tilefs.ZoomComputed
			}
			return runExport(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], policy, jobs, verbose)
		},
	}

	cmd.Flags().BoolVar(&computedZoom, "computed-zoom", false, "Export zoom levels present in the tiles table instead of the metadata range")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", runtime.NumCPU(), "Columns exported concurrently")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	return cmd
}

func runExport(ctx context.Context, out io.Writer, archive, outputDir string, policy tilefs.ZoomPolicy, jobs int, verbose bool) error {
	if jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", jobs)
	}

	adapter, err := tilefs.Open(ctx, archive, policy, nil)
	if err != nil {
		return err
	}

	zooms, err := listNames(ctx, adapter, "/")
	if err != nil {
		return err
	}

	var (
		written atomic.Int64
		outMu   sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	var listErr error
	for _, z := range zooms {
		columns, err := listNames(gctx, adapter, "/"+z)
		if err != nil {
			listErr = err
			break
		}
		for _, c := range columns {
			dir := "/" + z + "/" + c
			g.Go(func() error {
				n, err := exportColumn(gctx, adapter, dir, outputDir)
				written.Add(int64(n))
				if err == nil && verbose {
					outMu.Lock()
					fmt.Fprintf(out, "%s: %d tiles\n", dir, n)
					outMu.Unlock()
				}
				return err
			})
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if listErr != nil {
		return listErr
	}

	fmt.Fprintf(out, "Exported %d tiles from %s to %s\n", written.Load(), archive, outputDir)
	return nil
}

func exportColumn(ctx context.Context, adapter *tilefs.Adapter, dir, outputDir string) (int, error) {
	tiles, err := listNames(ctx, adapter, dir)
	if err != nil || len(tiles) == 0 {
		return 0, err
	}

	target := filepath.Join(outputDir, filepath.FromSlash(dir))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return 0, err
	}

	n := 0
	for _, name := range tiles {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		data, err := readTile(ctx, adapter, dir+"/"+name)
		if err != nil {
			return n, err
		}
		if err := os.WriteFile(filepath.Join(target, name), data, 0o644); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// readTile copies a tile the way the kernel would: sized by Stat, then read
// in chunks until a short read.
func readTile(ctx context.Context, adapter *tilefs.Adapter, path string) ([]byte, error) {
	attr, err := adapter.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := adapter.Open(path, os.O_RDONLY); err != nil {
		return nil, err
	}

	data := make([]byte, 0, attr.Size)
	for {
		chunk, err := adapter.Read(ctx, path, exportChunk, int64(len(data)))
		if err != nil {
			return nil, err
		}
		data = append(data, chunk...)
		if len(chunk) < exportChunk {
			return data, nil
		}
	}
}

// listNames returns the entries of dir without "." and "..".
func listNames(ctx context.Context, adapter *tilefs.Adapter, dir string) ([]string, error) {
	entries, err := adapter.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		names = append(names, e.Name)
	}
	return names, nil
}
