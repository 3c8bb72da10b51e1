package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Stamped by the release build with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)

// buildCommit falls back to the VCS revision the toolchain embeds when the
// release flags were not set.
func buildCommit() string {
	if Commit != "" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				return s.Value
			}
		}
	}
	return "none"
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		built := BuildDate
		if built == "" {
			built = "unknown"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "trimly %s (commit %s, built %s, %s)\n",
			Version, buildCommit(), built, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
