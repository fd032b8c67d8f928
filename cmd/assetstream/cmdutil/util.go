// Package cmdutil provides shared utilities for assetstream commands.
package cmdutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/marmos91/assetstream/internal/cli/output"
	"github.com/marmos91/assetstream/pkg/apiclient"
)

// EnvServer overrides the default server URL of the client commands.
const EnvServer = "ASSETSTREAM_SERVER"

// DefaultServer is used when neither --server nor ASSETSTREAM_SERVER is set.
const DefaultServer = "http://localhost:8080"

// Flags stores global flag values accessible by subcommands.
var Flags = &GlobalFlags{}

// GlobalFlags holds the global flag values.
type GlobalFlags struct {
	ServerURL string
	Output    string
}

// ServerURL resolves the server URL from the flag, the environment or the
// default, in that order.
func ServerURL() string {
	if Flags.ServerURL != "" {
		return Flags.ServerURL
	}
	if env := os.Getenv(EnvServer); env != "" {
		return env
	}
	return DefaultServer
}

// GetClient returns an API client for the resolved server.
func GetClient() *apiclient.Client {
	url := ServerURL()
	if !strings.Contains(url, "://") {
		url = "http://" + url
	}
	return apiclient.New(url)
}

// GetPrinter returns a stdout printer for the --output flag.
func GetPrinter() (*output.Printer, error) {
	format, err := output.ParseFormat(Flags.Output)
	if err != nil {
		return nil, err
	}
	return output.NewPrinter(os.Stdout, format), nil
}

// PrintOutput prints data with the --output format.
func PrintOutput(data any) error {
	p, err := GetPrinter()
	if err != nil {
		return err
	}
	return p.Print(data)
}

// SplitTags splits a comma-separated tag list, dropping blanks.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// PrintSuccess prints a confirmation for table output only.
func PrintSuccess(format string, args ...any) {
	if p, err := GetPrinter(); err == nil {
		p.Printf(format+"\n", args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
