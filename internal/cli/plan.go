// plan.go implements "daseg-bootstrap plan", which prints the
// resolved steps without running any of them.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/daseg-bootstrap/internal/config"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/provision"
)

// planFlags holds the flag values for the plan command.
type planFlags struct {
	yaml bool // --yaml: emit YAML instead of text
}

// planDocument is the machine-readable form of a plan.
type planDocument struct {
	Config *config.Config    `json:"config" yaml:"config"`
	Layout *provision.Layout `json:"layout" yaml:"layout"`
	Steps  []model.StepInfo  `json:"steps" yaml:"steps"`
}

// NewPlanCommand creates the "plan" cobra command.
func NewPlanCommand() *cobra.Command {
	flags := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the provisioning steps without running them",
		Long: `Resolve the configuration and print every step the installer would run,
with the directories each one works in. Nothing is created or downloaded.

Examples:
  daseg-bootstrap plan
  daseg-bootstrap plan --yaml > bootstrap-plan.yaml
  daseg-bootstrap plan --json --deps-dir third_party`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.yaml, "yaml", false, "Output in YAML format")

	return cmd
}

func runPlan(cmd *cobra.Command, flags *planFlags) error {
	cfg, _, plan, err := buildPlan(cmd)
	if err != nil {
		return err
	}

	doc := planDocument{Config: cfg, Layout: plan.Layout, Steps: plan.Infos()}
	out := cmd.OutOrStdout()

	switch {
	case IsJSONOutput():
		data, _ := json.MarshalIndent(doc, "", "  ")
		fmt.Fprintln(out, string(data))
	case flags.yaml:
		data, err := RenderPlanYAML(doc)
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to render plan", err)
		}
		fmt.Fprint(out, string(data))
	default:
		printPlanText(out, doc)
	}
	return nil
}

// RenderPlanYAML serializes a plan document with two-space indentation,
// matching the indentation of the JSON output.
func RenderPlanYAML(doc planDocument) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// printPlanText writes the plan as numbered human-readable lines.
func printPlanText(w io.Writer, doc planDocument) {
	fmt.Fprintf(w, "Dependency directory: %s\n", doc.Layout.DepsDir)
	fmt.Fprintf(w, "Python interpreter:   %s\n", doc.Config.Python)
	fmt.Fprintln(w)
	for _, s := range doc.Steps {
		fmt.Fprintf(w, "  %d. %-16s %s\n", s.Index, s.Kind, s.Description)
		fmt.Fprintf(w, "     in %s\n", s.Dir)
	}
}
