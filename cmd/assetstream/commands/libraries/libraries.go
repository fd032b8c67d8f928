// Package libraries implements the client commands that drive libraries on
// a running server.
package libraries

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
)

var requestTimeout time.Duration

// Cmd is the parent command for library management.
var Cmd = &cobra.Command{
	Use:     "libraries",
	Aliases: []string{"library", "lib"},
	Short:   "Manage libraries on a running server",
	Long: `Register, sort and window libraries on a running assetstream server.

The server URL is taken from --server, then ASSETSTREAM_SERVER, then
http://localhost:8080.

Examples:
  # List libraries
  assetstream libraries list

  # Register a catalog file as library "weapons"
  assetstream libraries register weapons.yaml --name weapons

  # Sort it and move the window
  assetstream libraries sort weapons --order blade,ranged
  assetstream libraries buffer weapons --page 0 --page-size 20 --buffer-pages 1`,
}

func init() {
	Cmd.PersistentFlags().StringVar(&cmdutil.Flags.ServerURL, "server", "", "Server URL (default: $ASSETSTREAM_SERVER or "+cmdutil.DefaultServer+")")
	Cmd.PersistentFlags().DurationVar(&requestTimeout, "timeout", 30*time.Second, "Request timeout")

	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(getCmd)
	Cmd.AddCommand(registerCmd)
	Cmd.AddCommand(removeCmd)
	Cmd.AddCommand(sortCmd)
	Cmd.AddCommand(idsCmd)
	Cmd.AddCommand(bufferCmd)
	Cmd.AddCommand(statusCmd)
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}
