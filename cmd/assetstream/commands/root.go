// Package commands implements the assetstream CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/cmd/assetstream/commands/catalog"
	"github.com/marmos91/assetstream/cmd/assetstream/commands/config"
	"github.com/marmos91/assetstream/cmd/assetstream/commands/libraries"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "assetstream",
	Short: "assetstream - windowed asset streaming prioritizer",
	Long: `assetstream keeps the assets around a moving window of a filtered and
sorted catalog resident, loading the window itself at high priority and its
surroundings at default priority.

Run "assetstream serve" to start the server, or use the catalog commands to
check catalog files offline.

Use "assetstream [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/assetstream/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&cmdutil.Flags.Output, "output", "o", "table", "Output format (table|json|yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(catalog.Cmd)
	rootCmd.AddCommand(libraries.Cmd)
	rootCmd.AddCommand(completionCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
