package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dendrascience/mbtiles-fuse/internal/logging"
	"github.com/dendrascience/mbtiles-fuse/tilefs"
	"github.com/dendrascience/mbtiles-fuse/version"
)

var mountEnv = []envBinding{
	{flag: "computed-zoom", env: "MBTILESFS_COMPUTED_ZOOM"},
	{flag: "log-level", env: "MBTILESFS_LOG_LEVEL"},
	{flag: "log-sink", env: "MBTILESFS_LOG_SINK"},
	{flag: "allow-other", env: "MBTILESFS_ALLOW_OTHER"},
}

type mountOptions struct {
	computedZoom bool
	logLevel     logging.Level
	logSink      string
	allowOther   bool
}

func (o mountOptions) policy() tilefs.ZoomPolicy {
	if o.computedZoom {
		return tilefs.ZoomComputed
	}
	return tilefs.ZoomFromMetadata
}

// NewMountCmd creates and returns the mount subcommand.
func NewMountCmd() *cobra.Command {
	opts := mountOptions{logLevel: logging.Off}

	cmd := &cobra.Command{
		Use:   "mount MOUNTPOINT ARCHIVE",
		Short: "Mount an MBTiles archive as a read-only tile tree",
		Long: `Mount an MBTiles archive at MOUNTPOINT.

Tiles appear as /<zoom>/<column>/<row>.<ext> with rows counted from the top
of the grid. The archive is opened read-only and every filesystem request
queries it directly.

Each flag falls back to an environment variable when it is not given:
  --computed-zoom   MBTILESFS_COMPUTED_ZOOM
  --log-level       MBTILESFS_LOG_LEVEL
  --log-sink        MBTILESFS_LOG_SINK
  --allow-other     MBTILESFS_ALLOW_OTHER`,
		Args: cobra.ExactArgs(2),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := applyEnv(cmd.Flags(), os.LookupEnv, mountEnv); err != nil {
				_ = cmd.Usage()
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMount(cmd.Context(), cmd.OutOrStdout(), opts, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.computedZoom, "computed-zoom", false, "List zoom levels present in the tiles table instead of the metadata range")
	cmd.Flags().Var(&opts.logLevel, "log-level", "Diagnostic verbosity: OFF|ERROR|WARNING|DEBUG|TRACE")
	cmd.Flags().StringVar(&opts.logSink, "log-sink", "", `Diagnostic destination: a file path, or "-" for stderr`)
	cmd.Flags().BoolVar(&opts.allowOther, "allow-other", false, "Let users other than the mounter access the filesystem")

	return cmd
}

func runMount(ctx context.Context, out io.Writer, opts mountOptions, mountpoint, archive string) error {
	if archiveHidden(archive, mountpoint) {
		return fmt.Errorf("archive %s lies under mountpoint %s and would be hidden by the mount", archive, mountpoint)
	}

	logger, closer, err := logging.New(opts.logLevel, opts.logSink)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger = logger.With("session", uuid.NewString())

	adapter, err := tilefs.Open(ctx, archive, opts.policy(), logger)
	if err != nil {
		return fmt.Errorf("cannot mount %s: %w", archive, err)
	}

	mountOpts := []fuse.MountOption{
		fuse.FSName("mbtiles"),
		fuse.Subtype("mbtilesfs"),
		fuse.ReadOnly(),
	}
	if opts.allowOther {
		mountOpts = append(mountOpts, fuse.AllowOther())
	}

	c, err := fuse.Mount(mountpoint, mountOpts...)
	if err != nil {
		logger.Error("fuse mount failed", "mountpoint", mountpoint, "error", err)
		return err
	}
	defer c.Close()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		logger.Info("unmounting", "mountpoint", mountpoint)
		if err := fuse.Unmount(mountpoint); err != nil {
			logger.Warn("unmount failed", "mountpoint", mountpoint, "error", err)
		}
	}()

	meta := adapter.Metadata()
	logger.Info("mounted",
		"archive", archive,
		"mountpoint", mountpoint,
		"format", meta.Format,
		"zoom_policy", adapter.Policy(),
		"version", version.Full())
	fmt.Fprintf(out, "mbtilesfs %s: %s mounted at %s\n", version.Full(), archive, mountpoint)

	if err := fs.Serve(c, tilefs.NewFS(adapter)); err != nil {
		logger.Error("serve failed", "error", err)
		return err
	}
	return nil
}

// archiveHidden reports whether mounting at mountpoint would cover the
// archive file, which every request reopens.
func archiveHidden(archive, mountpoint string) bool {
	a, err := filepath.Abs(archive)
	if err != nil {
		return false
	}
	m, err := filepath.Abs(mountpoint)
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(m, a)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
