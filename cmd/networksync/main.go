package main

import (
	"github.com/spf13/cobra"

	"github.com/ddloads/networksync/pkg/cmdsupport"
	"github.com/ddloads/networksync/pkg/logging"
)

var rootConfiguration struct {
	// configPath overrides the default per-peer configuration file location.
	configPath string
	// logLevel controls the verbosity of the engine's logger.
	logLevel string
}

var rootCommand = &cobra.Command{
	Use:           "networksync",
	Short:         "networksync synchronizes project trees over a shared network mount",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCommand.PersistentFlags()
	flags.StringVar(&rootConfiguration.configPath, "config", "", "Path to the configuration file (default ~/.config/networksync/config.yaml)")
	flags.StringVar(&rootConfiguration.logLevel, "log-level", "info", "Logging verbosity: disabled|error|warn|info|debug|trace")

	cobra.EnableCommandSorting = false

	rootCommand.AddCommand(
		pushCommand,
		pullCommand,
		restoreCommand,
		statusCommand,
		gcCommand,
		projectCommand,
		lockCommand,
		configCommand,
	)
}

// rootLogger builds the logger for this invocation from the --log-level flag.
func rootLogger() *logging.Logger {
	level, ok := logging.NameToLevel(rootConfiguration.logLevel)
	if !ok {
		cmdsupport.Warning("unrecognized log level \"" + rootConfiguration.logLevel + "\", defaulting to info")
		level = logging.LevelInfo
	}
	return logging.NewLogger(level)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		cmdsupport.Fatal(err)
	}
}
