// verify.go implements "daseg-bootstrap verify", which checks
// an already provisioned dependency directory.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/provision"
)

// NewVerifyCommand creates the "verify" cobra command.
func NewVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check a provisioned dependency directory",
		Long: `Inspect the dependency directory left by a previous run and check that:

  - it contains exactly the corpus and toolkit clones
  - the corpus clone has a setup.py declaring the corpus package
  - the toolkit HEAD is detached at the pinned tag

Nothing is modified. The exit code is nonzero when any check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd)
		},
	}
}

func runVerify(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc := newServices(cmd, cfg)

	v, err := provision.Verify(cmd.Context(), cfg, svc.git)
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		printVerificationJSON(cmd.OutOrStdout(), v)
	} else {
		printVerificationText(cmd.OutOrStdout(), v)
	}

	if failed := v.Failed(); len(failed) > 0 {
		return model.NewCLIError(model.ExitVerifyFailed,
			fmt.Sprintf("%d of %d checks failed (first: %s)", len(failed), len(v.Checks), failed[0].Name))
	}
	return nil
}

// printVerificationJSON writes the verification result as indented JSON.
func printVerificationJSON(w io.Writer, v *provision.Verification) {
	type resultJSON struct {
		DepsDir string            `json:"depsDir"`
		Passed  bool              `json:"passed"`
		Checks  []provision.Check `json:"checks"`
	}

	data, _ := json.MarshalIndent(resultJSON{
		DepsDir: v.Layout.DepsDir,
		Passed:  v.Passed(),
		Checks:  v.Checks,
	}, "", "  ")
	fmt.Fprintln(w, string(data))
}

// printVerificationText writes one line per check.
func printVerificationText(w io.Writer, v *provision.Verification) {
	for _, c := range v.Checks {
		mark := "ok  "
		if !c.Passed {
			mark = "FAIL"
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "  %s %s: %s\n", mark, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "  %s %s\n", mark, c.Name)
		}
	}
}
