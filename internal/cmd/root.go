package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dendrascience/mbtiles-fuse/version"
)

// NewRootCmd creates and returns the root cobra command for the mbtilesfs CLI.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mbtilesfs",
		Short: "mbtilesfs - mount MBTiles archives as read-only tile directories",
		Long: `mbtilesfs exposes the tiles of an MBTiles archive through FUSE as
/<zoom>/<column>/<row>.<ext>, the layout web map clients request tiles in.

Use subcommands to perform different operations:
  - mount: Mount an archive at a mountpoint
  - export: Write the mounted view of an archive to a directory
  - validate: Check that an archive can be mounted and served
  - stats: Summarize the tiles held in an archive
  - seed: Generate a synthetic archive for testing
  - version: Print version information`,
		Version: version.Full(),
	}

	groupFilesystem := "filesystem"
	groupUtilities := "utilities"

	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFilesystem,
		Title: "Filesystem Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := NewMountCmd()
	exportCmd := NewExportCmd()
	validateCmd := NewValidateCmd()
	statsCmd := NewStatsCmd()
	seedCmd := NewSeedCmd()
	versionCmd := NewVersionCmd()

	mountCmd.GroupID = groupFilesystem
	exportCmd.GroupID = groupFilesystem
	validateCmd.GroupID = groupUtilities
	statsCmd.GroupID = groupUtilities
	seedCmd.GroupID = groupUtilities
	versionCmd.GroupID = groupUtilities

	rootCmd.AddCommand(mountCmd, exportCmd, validateCmd, statsCmd, seedCmd, versionCmd)

	return rootCmd
}
