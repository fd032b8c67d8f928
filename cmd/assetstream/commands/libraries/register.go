package libraries

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
	"github.com/marmos91/assetstream/pkg/catalogfile"
)

var registerName string

var registerCmd = &cobra.Command{
	Use:   "register <file>",
	Short: "Register a catalog file as a library",
	Long: `Register a YAML or JSON catalog file as a library, replacing any library
with the same name. The file is validated locally before it is sent.

The library name defaults to the file name without its extension.

Examples:
  assetstream libraries register weapons.yaml
  assetstream libraries register ./catalogs/armor.json --name armor`,
	Args: cobra.ExactArgs(1),
	RunE: runRegister,
}

func init() {
	registerCmd.Flags().StringVar(&registerName, "name", "", "Library name (default: file name without extension)")
}

func runRegister(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := registerName
	if name == "" {
		name = libraryNameFromPath(path)
	}

	f, err := catalogfile.Load(path)
	if err != nil {
		return err
	}
	body, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}

	ctx, cancel := requestContext(cmd)
	defer cancel()

	st, err := cmdutil.GetClient().RegisterLibrary(ctx, name, body)
	if err != nil {
		return fmt.Errorf("failed to register library: %w", err)
	}

	cmdutil.PrintSuccess("Library '%s' registered with %d items", st.Name, st.Items)
	return printStatus(st)
}

func libraryNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
