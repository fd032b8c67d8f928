package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/pkg/catalogfile"
	"github.com/marmos91/assetstream/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the assetstream configuration file.

Checks for syntax errors, missing required fields, and invalid values, then
parses every catalog file listed under libraries.

Examples:
  # Validate default config
  assetstream config validate

  # Validate specific config file
  assetstream config validate --config /etc/assetstream/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	var warnings []string
	for _, lc := range cfg.Libraries {
		if _, err := os.Stat(lc.Path); err != nil {
			return fmt.Errorf("library %q: %w", lc.Name, err)
		}
		if _, err := catalogfile.Load(lc.Path); err != nil {
			return fmt.Errorf("library %q: %w", lc.Name, err)
		}
	}
	if len(cfg.Libraries) == 0 {
		warnings = append(warnings, "No libraries configured - register them through the API")
	}
	if cfg.Source.Type == config.SourceMemory {
		warnings = append(warnings, "Memory source starts empty - every load will fail until resources are added")
	}
	if !cfg.API.IsEnabled() && len(cfg.Libraries) == 0 {
		warnings = append(warnings, "API disabled and no libraries configured - the server has nothing to do")
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintf(out, "\nConfiguration summary:\n")
	_, _ = fmt.Fprintf(out, "  Source type:     %s\n", cfg.Source.Type)
	_, _ = fmt.Fprintf(out, "  Libraries:       %d\n", len(cfg.Libraries))
	_, _ = fmt.Fprintf(out, "  API port:        %d\n", cfg.API.Port)
	_, _ = fmt.Fprintf(out, "  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
