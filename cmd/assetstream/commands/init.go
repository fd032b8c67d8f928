package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample assetstream configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/assetstream/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  assetstream init

  # Initialize with custom path
  assetstream init --config /etc/assetstream/config.yaml

  # Force overwrite existing config
  assetstream init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Pick a resource source and list your catalog files under libraries")
	_, _ = fmt.Fprintln(out, "  2. Check each catalog with: assetstream catalog validate <file>")
	_, _ = fmt.Fprintf(out, "  3. Start the server with: assetstream serve --config %s\n", configPath)

	return nil
}
