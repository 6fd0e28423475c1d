package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Set with -ldflags "-X". Empty or placeholder values fall back to the
// module build info embedded by the Go toolchain.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Package is the module name reported alongside the version.
const Package = "mbtiles-fuse"

// Info is the resolved build identity.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Package string `json:"package"`
}

// Get resolves the build identity, preferring linker-injected values.
func Get() Info {
	info := Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Package: Package,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		if info.Version == "dev" {
			info.Version = "development"
		}
		return info
	}

	if info.Version == "dev" || info.Version == "" {
		info.Version = "development"
		if v := bi.Main.Version; v != "" && v != "(devel)" {
			info.Version = v
		}
	}
	if info.Commit == "unknown" || info.Commit == "" {
		info.Commit = setting(bi, "vcs.revision", "unknown")
	}
	if info.Date == "unknown" || info.Date == "" {
		info.Date = setting(bi, "vcs.time", "unknown")
	}
	return info
}

func setting(bi *debug.BuildInfo, key, fallback string) string {
	for _, s := range bi.Settings {
		if s.Key == key && s.Value != "" {
			return s.Value
		}
	}
	return fallback
}

// String formats the version with a short commit and the build date when
// they are known, e.g. "v0.3.0 (1a2b3c4, built 2025-04-01T10:00:00Z)".
func (i Info) String() string {
	if i.Commit == "unknown" || len(i.Commit) <= 7 {
		return i.Version
	}
	short := i.Commit[:7]
	if i.Date == "unknown" {
		return fmt.Sprintf("%s (%s)", i.Version, short)
	}
	return fmt.Sprintf("%s (%s, built %s)", i.Version, short, i.Date)
}

// Full is shorthand for Get().String().
func Full() string {
	return Get().String()
}

// Fprint writes a multi-line version report for appName to w.
func Fprint(w io.Writer, appName string) {
	info := Get()
	fmt.Fprintf(w, "%s version %s\n", appName, info)
	fmt.Fprintf(w, "Package: %s\n", info.Package)
	fmt.Fprintf(w, "Commit: %s\n", info.Commit)
	fmt.Fprintf(w, "Build Date: %s\n", info.Date)
}
