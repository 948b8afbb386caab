package main

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// buildVersion falls back to module build info for go install builds.
func buildVersion() (v, c, d string) {
	v, c, d = version, commit, date
	if v != "dev" {
		return v, c, d
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return v, c, d
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		v = info.Main.Version
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			c = setting.Value
			if len(c) > 7 {
				c = c[:7]
			}
		case "vcs.time":
			d = setting.Value
		}
	}
	return v, c, d
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			v, c, d := buildVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "pgquery %s (commit: %s, built: %s)\n", v, c, d)
		},
	}
}
