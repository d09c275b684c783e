// install.go implements the provisioning run, reachable both
// as `daseg-bootstrap` with no arguments and as `daseg-bootstrap install`.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/provision"
)

// NewInstallCommand creates the "install" cobra command.
func NewInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Provision the environment (same as running with no command)",
		Long: `Run every provisioning step in order:

  1. create the dependency directory
  2. clone the corpus repository
  3. write its setup.py
  4. pip install -e the corpus
  5. extract the bundled corpus archive
  6. download the spaCy model
  7. clone the toolkit repository
  8. check out the pinned toolkit tag
  9. pip install -e the toolkit

The run stops at the first failing step. Re-running without removing the
dependency directory fails at step 2 because the clone target exists.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd)
		},
	}
}

// runInstall builds the plan and executes it, printing a summary whether or
// not the run succeeded.
func runInstall(cmd *cobra.Command) error {
	_, _, plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}
	VerboseLog("Dependency directory: %s", plan.Layout.DepsDir)

	report, runErr := provision.NewExecutor(logger).Execute(cmd.Context(), plan)

	if IsJSONOutput() {
		printReportJSON(cmd.OutOrStdout(), report)
	} else {
		printReportText(cmd.ErrOrStderr(), report)
	}
	return runErr
}

// printReportJSON writes the full run report as indented JSON.
func printReportJSON(w io.Writer, report *model.Report) {
	type stepJSON struct {
		Index       int    `json:"index"`
		Kind        string `json:"kind"`
		Description string `json:"description"`
		Status      string `json:"status"`
		DurationMS  int64  `json:"durationMs"`
		Error       string `json:"error,omitempty"`
	}

	type resultJSON struct {
		DepsDir    string     `json:"depsDir"`
		Succeeded  bool       `json:"succeeded"`
		FailedStep int        `json:"failedStep,omitempty"`
		Steps      []stepJSON `json:"steps"`
	}

	result := resultJSON{
		DepsDir:   report.DepsDir,
		Succeeded: report.Succeeded(),
	}
	if failed := report.FailedStep(); failed != nil {
		result.FailedStep = failed.Index
	}
	for _, s := range report.Steps {
		result.Steps = append(result.Steps, stepJSON{
			Index:       s.Index,
			Kind:        s.Kind.String(),
			Description: s.Description,
			Status:      s.Status.String(),
			DurationMS:  s.Duration.Milliseconds(),
			Error:       s.Error,
		})
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(w, string(data))
}

// printReportText writes a one-line-per-step summary. It goes to stderr
// alongside the tool output it summarizes.
func printReportText(w io.Writer, report *model.Report) {
	fmt.Fprintln(w)
	if report.Succeeded() {
		fmt.Fprintf(w, "Provisioned %s\n", report.DepsDir)
	} else {
		fmt.Fprintf(w, "Provisioning of %s stopped (%d of %d steps succeeded, %d skipped)\n",
			report.DepsDir, report.Count(model.StatusSucceeded), len(report.Steps), report.Count(model.StatusSkipped))
	}
	for _, s := range report.Steps {
		fmt.Fprintln(w, FormatStepLine(s))
	}
}

// statusMarks are the fixed-width markers shown before each step line.
var statusMarks = map[model.StepStatus]string{
	model.StatusSucceeded: "ok  ",
	model.StatusFailed:    "FAIL",
	model.StatusSkipped:   "skip",
	model.StatusPending:   "    ",
	model.StatusRunning:   "... ",
}

// FormatStepLine renders one step result, e.g.
// "  ok   [2] clone   clone https://github.com/cgpotts/swda.git (3.2s)".
func FormatStepLine(s model.StepResult) string {
	mark, ok := statusMarks[s.Status]
	if !ok {
		mark = strings.ToUpper(s.Status.String())
	}

	line := fmt.Sprintf("  %s [%d] %-16s %s", mark, s.Index, s.Kind, s.Description)
	if s.Status == model.StatusSucceeded || s.Status == model.StatusFailed {
		line += " (" + FormatDuration(s.Duration) + ")"
	}
	return line
}

// FormatDuration renders d rounded for humans: milliseconds below one
// second, tenths of a second below a minute, whole seconds above.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}
