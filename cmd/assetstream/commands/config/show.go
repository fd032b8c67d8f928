package config

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/config"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Long: `Display the effective assetstream configuration, with defaults and
environment overrides applied.

Outputs YAML unless --output json is given.

Examples:
  # Show default config as YAML
  assetstream config show

  # Show as JSON
  assetstream config show -o json`,
	RunE: runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	formatFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	if format == output.FormatJSON {
		return output.PrintJSON(os.Stdout, cfg)
	}
	return output.PrintYAML(os.Stdout, cfg)
}
