package main

import (
	"github.com/spf13/pflag"
)

// selectiveSyncFlags stores the --include flag shared by pull and restore and
// provides for its registration, mirroring the teacher's grouped-flag-struct
// convention for options reused across more than one subcommand.
type selectiveSyncFlags struct {
	// include stores the value of the --include flag.
	include []string
}

// Register registers the flags into the specified flag set.
func (f *selectiveSyncFlags) Register(flags *pflag.FlagSet) {
	flags.StringArrayVar(&f.include, "include", nil, "Selective-sync include pattern (repeatable; default is everything)")
}

// Patterns returns the registered include patterns, or nil if none were
// supplied, in which case the engine treats every path as included.
func (f *selectiveSyncFlags) Patterns() []string {
	return f.include
}
