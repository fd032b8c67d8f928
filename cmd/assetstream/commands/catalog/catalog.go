// Package catalog implements the offline catalog subcommands.
package catalog

import "github.com/spf13/cobra"

// Cmd is the parent command for catalog file tooling.
var Cmd = &cobra.Command{
	Use:   "catalog",
	Short: "Work with catalog files offline",
	Long: `Validate catalog files and preview how they filter, sort and window
without a running server.

Examples:
  # Validate a catalog
  assetstream catalog validate weapons.yaml

  # Preview the sorted order and the resident window
  assetstream catalog inspect weapons.yaml --order blade,ranged --index 0 --margin 2

  # Write the catalog JSON schema for editor support
  assetstream catalog schema --file catalog.schema.json`,
}

func init() {
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
	Cmd.AddCommand(inspectCmd)
}
