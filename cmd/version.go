// =============================================================================
// Subledger Mapper - Version Command
// =============================================================================
//
// This file defines the 'version' command. Besides the build stamp it prints
// the fixed account-string layout, so a report can be matched to the build
// that produced it.
//
// COMMAND USAGE:
//   subledger-mapper version
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"

	"github.com/ginjaninja78/subledger-mapper/internal/types"
	"github.com/spf13/cobra"
)

// =============================================================================
// BUILD STAMP
// =============================================================================
// Release builds stamp these through ldflags:
//   go build -ldflags "\
//     -X github.com/ginjaninja78/subledger-mapper/cmd.Version=1.2.0 \
//     -X github.com/ginjaninja78/subledger-mapper/cmd.Commit=$(git rev-parse --short HEAD) \
//     -X github.com/ginjaninja78/subledger-mapper/cmd.BuildDate=$(date -u +%Y-%m-%d)"
// Local builds report "dev".

// Version is the release version.
var Version = "1.0.0"

// Commit is the source revision of the build.
var Commit = "dev"

// BuildDate is the UTC build date.
var BuildDate = "dev"

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the build stamp and account layout",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Subledger Mapper")
		fmt.Fprintf(out, "Version:    %s (%s)\n", Version, Commit)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		fmt.Fprintf(out, "Account:    %d segments joined by %q\n", types.SegmentCount, types.SegmentSeparator)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
