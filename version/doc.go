// Package version reports the build identity of the mbtilesfs binary.
//
// Release builds inject Version, Commit and Date with
//
//	-ldflags "-X github.com/dendrascience/mbtiles-fuse/version.Version=v1.0.0 ..."
//
// Development builds fall back to the module and VCS stamps that the Go
// toolchain embeds, read through runtime/debug.
package version
