// Package cmd provides the command-line interface for mbtilesfs.
//
// Each subcommand lives in its own file with a constructor returning a
// *cobra.Command; NewRootCmd wires them together and main hands the result
// to fang for styled help and error output.
//
//   - mount: serve an archive through FUSE
//   - export: copy the mounted view to a plain directory tree
//   - validate: check metadata, tile addresses and vector payloads
//   - stats: per-zoom tile counts and stored sizes
//   - seed: write a synthetic archive
//
// Mount options can also come from MBTILESFS_* environment variables; a
// flag given on the command line always wins.
package cmd
