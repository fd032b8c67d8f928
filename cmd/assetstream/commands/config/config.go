// Package config implements the config subcommands.
package config

import "github.com/spf13/cobra"

// Cmd is the parent command for configuration management.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Manage server configuration",
	Long: `Inspect and validate the assetstream configuration file.

Examples:
  # Validate the default configuration
  assetstream config validate

  # Show the effective configuration as JSON
  assetstream config show -o json

  # Write the JSON schema for editor support
  assetstream config schema --file config.schema.json`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(schemaCmd)
}
