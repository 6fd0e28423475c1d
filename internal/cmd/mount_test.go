package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dendrascience/mbtiles-fuse/internal/logging"
	"github.com/dendrascience/mbtiles-fuse/internal/testutil"
)

func TestArchiveHidden(t *testing.T) {
	tests := []struct {
		name       string
		archive    string
		mountpoint string
		expected   bool
	}{
		{
			name:       "archive inside mountpoint",
			archive:    "/srv/tiles/world.mbtiles",
			mountpoint: "/srv/tiles",
			expected:   true,
		},
		{
			name:       "archive nested below mountpoint",
			archive:    "/srv/tiles/2024/world.mbtiles",
			mountpoint: "/srv",
			expected:   true,
		},
		{
			name:       "sibling directories",
			archive:    "/srv/archives/world.mbtiles",
			mountpoint: "/srv/tiles",
			expected:   false,
		},
		{
			name:       "mountpoint below archive directory",
			archive:    "/srv/world.mbtiles",
			mountpoint: "/srv/mnt",
			expected:   false,
		},
		{
			name:       "prefix without separator",
			archive:    "/srv/tiles-old/world.mbtiles",
			mountpoint: "/srv/tiles",
			expected:   false,
		},
		{
			name:       "relative paths - hidden",
			archive:    "mnt/world.mbtiles",
			mountpoint: "mnt",
			expected:   true,
		},
		{
			name:       "relative paths - separate",
			archive:    "world.mbtiles",
			mountpoint: "mnt",
			expected:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := archiveHidden(tt.archive, tt.mountpoint)
			if result != tt.expected {
				t.Errorf("archiveHidden(%q, %q) = %v, expected %v", tt.archive, tt.mountpoint, result, tt.expected)
			}
		})
	}
}

func newMountFlags(opts *mountOptions) *pflag.FlagSet {
	flags := pflag.NewFlagSet("mount", pflag.ContinueOnError)
	flags.BoolVar(&opts.computedZoom, "computed-zoom", false, "")
	flags.Var(&opts.logLevel, "log-level", "")
	flags.StringVar(&opts.logSink, "log-sink", "", "")
	flags.BoolVar(&opts.allowOther, "allow-other", false, "")
	return flags
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnv(t *testing.T) {
	t.Run("environment fills unset flags", func(t *testing.T) {
		opts := mountOptions{logLevel: logging.Off}
		flags := newMountFlags(&opts)
		require.NoError(t, flags.Parse(nil))

		err := applyEnv(flags, envMap(map[string]string{
			"MBTILESFS_COMPUTED_ZOOM": "true",
			"MBTILESFS_LOG_LEVEL":     "debug",
			"MBTILESFS_LOG_SINK":      "/var/log/mbtilesfs.log",
		}), mountEnv)
		require.NoError(t, err)

		assert.True(t, opts.computedZoom)
		assert.Equal(t, logging.Debug, opts.logLevel)
		assert.Equal(t, "/var/log/mbtilesfs.log", opts.logSink)
		assert.False(t, opts.allowOther)
	})

	t.Run("flags win over environment", func(t *testing.T) {
		opts := mountOptions{logLevel: logging.Off}
		flags := newMountFlags(&opts)
		require.NoError(t, flags.Parse([]string{"--log-level", "ERROR", "--computed-zoom=false"}))

		err := applyEnv(flags, envMap(map[string]string{
			"MBTILESFS_COMPUTED_ZOOM": "true",
			"MBTILESFS_LOG_LEVEL":     "TRACE",
		}), mountEnv)
		require.NoError(t, err)

		assert.False(t, opts.computedZoom)
		assert.Equal(t, logging.Error, opts.logLevel)
	})

	t.Run("empty values are ignored", func(t *testing.T) {
		opts := mountOptions{logLevel: logging.Off}
		flags := newMountFlags(&opts)
		require.NoError(t, flags.Parse(nil))

		err := applyEnv(flags, envMap(map[string]string{"MBTILESFS_LOG_LEVEL": ""}), mountEnv)
		require.NoError(t, err)
		assert.Equal(t, logging.Off, opts.logLevel)
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		for env, value := range map[string]string{
			"MBTILESFS_LOG_LEVEL":     "LOUD",
			"MBTILESFS_COMPUTED_ZOOM": "sometimes",
		} {
			opts := mountOptions{logLevel: logging.Off}
			flags := newMountFlags(&opts)
			require.NoError(t, flags.Parse(nil))

			err := applyEnv(flags, envMap(map[string]string{env: value}), mountEnv)
			require.Error(t, err, env)
			assert.Contains(t, err.Error(), env)
		}
	})
}

func TestMountFailsBeforeMounting(t *testing.T) {
	noFormat := testutil.Write(t, testutil.Archive{
		Metadata: map[string]string{"minzoom": "0", "maxzoom": "2"},
	})

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "invalid log level flag",
			args:    []string{"--log-level", "LOUD"},
			wantErr: "unknown log level",
		},
		{
			name:    "invalid log level environment",
			env:     map[string]string{"MBTILESFS_LOG_LEVEL": "LOUD"},
			wantErr: "MBTILESFS_LOG_LEVEL",
		},
		{
			name:    "missing format",
			wantErr: "cannot mount",
		},
		{
			name:    "missing archive",
			args:    []string{"--log-level", "ERROR", "--log-sink", "-"},
			wantErr: "cannot mount",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			archive := noFormat
			if tt.name == "missing archive" {
				archive = filepath.Join(t.TempDir(), "absent.mbtiles")
			}

			root := NewRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs(append(append([]string{"mount"}, tt.args...), t.TempDir(), archive))

			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
