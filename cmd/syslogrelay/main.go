// Command syslogrelay runs the syslog relay pipeline: listens for syslog
// messages, routes and transforms them, and re-emits them to configured
// collectors.
//
// Logging:
//   - Base logger is created here with output format and level.
//   - Logger is passed to the pipeline via dependency injection.
//   - No global slog configuration (no slog.SetDefault).
//   - Components scope loggers with their own attributes.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/brunseba/syslog-forwarder/internal/logging"
)

var version = "dev"

func main() {
	os.Exit(runMain())
}

func runMain() int {
	baseHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug, // filtering is done by ComponentFilterHandler
	})
	filterHandler := logging.NewComponentFilterHandler(baseHandler, slog.LevelInfo)
	logger := slog.New(filterHandler)

	rootCmd := &cobra.Command{
		Use:   "syslogrelay",
		Short: "Standalone syslog relay",
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version)
		},
	}

	rootCmd.AddCommand(newRunCommand(logger), versionCmd)

	if err := rootCmd.Execute(); err != nil {
		if code, ok := exitCodeFor(err); ok {
			return code
		}
		return 1
	}
	return 0
}
