package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
)

// envBinding ties a flag to the environment variable consulted when the flag
// is not given on the command line.
type envBinding struct {
	flag string
	env  string
}

// applyEnv fills unset flags from the environment. Values go through the
// flag's own parser, so a bad environment value fails exactly like a bad
// flag would.
func applyEnv(flags *pflag.FlagSet, lookup func(string) (string, bool), bindings []envBinding) error {
	for _, b := range bindings {
		if flags.Changed(b.flag) {
			continue
		}
		v, ok := lookup(b.env)
		if !ok || v == "" {
			continue
		}
		if err := flags.Set(b.flag, v); err != nil {
			return fmt.Errorf("invalid %s=%q: %w", b.env, v, err)
		}
	}
	return nil
}
