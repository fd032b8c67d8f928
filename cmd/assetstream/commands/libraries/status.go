package libraries

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/marmos91/assetstream/cmd/assetstream/cmdutil"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server readiness and loader state",
	Long: `Check whether the server is ready and report the streaming loader's
queue depth and resident set.

Examples:
  assetstream libraries status
  assetstream libraries status -o json`,
	RunE: runStatus,
}

type serverStatus struct {
	Server        string `json:"server" yaml:"server"`
	Ready         bool   `json:"ready" yaml:"ready"`
	Reason        string `json:"reason,omitempty" yaml:"reason,omitempty"`
	Pending       int    `json:"pending" yaml:"pending"`
	Resident      int    `json:"resident" yaml:"resident"`
	ResidentBytes int    `json:"resident_bytes" yaml:"resident_bytes"`
	LastError     string `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

func (s serverStatus) Headers() []string {
	return []string{"Server", "Ready", "Pending", "Resident", "Bytes", "Last Error"}
}

func (s serverStatus) Rows() [][]string {
	ready := "yes"
	if !s.Ready {
		ready = "no"
		if s.Reason != "" {
			ready = "no (" + s.Reason + ")"
		}
	}
	lastErr := s.LastError
	if lastErr == "" {
		lastErr = "-"
	}
	return [][]string{{
		s.Server,
		ready,
		strconv.Itoa(s.Pending),
		strconv.Itoa(s.Resident),
		strconv.Itoa(s.ResidentBytes),
		lastErr,
	}}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := requestContext(cmd)
	defer cancel()

	client := cmdutil.GetClient()
	st := serverStatus{Server: client.BaseURL(), Ready: true}

	if err := client.Ready(ctx); err != nil {
		st.Ready = false
		st.Reason = err.Error()
	}

	loader, err := client.Loader(ctx)
	if err != nil {
		if !st.Ready {
			return fmt.Errorf("server unreachable: %s", st.Reason)
		}
		return fmt.Errorf("failed to get loader status: %w", err)
	}
	st.Pending = loader.Pending
	st.Resident = loader.Resident
	st.ResidentBytes = loader.ResidentBytes
	st.LastError = loader.LastError

	return cmdutil.PrintOutput(st)
}
