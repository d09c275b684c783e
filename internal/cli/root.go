// Package cli implements the cobra-based CLI commands for daseg-bootstrap.
//
// Running the binary with no subcommand performs the full installation.
// The install, plan, and verify subcommands are defined in their own files
// within this package. This file defines the root command, the global
// flags, and error/exit-code handling.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/daseg-bootstrap/internal/command"
	"github.com/shinji-kodama/daseg-bootstrap/internal/config"
	"github.com/shinji-kodama/daseg-bootstrap/internal/gitrepo"
	"github.com/shinji-kodama/daseg-bootstrap/internal/model"
	"github.com/shinji-kodama/daseg-bootstrap/internal/provision"
	"github.com/shinji-kodama/daseg-bootstrap/internal/python"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose enables debug logging (commands, directories, timings).
	verbose bool

	// configFile is an optional JSONC or YAML configuration file.
	configFile string

	// depsDir overrides the dependency directory.
	depsDir string

	// pythonBin overrides the Python interpreter.
	pythonBin string
)

// logger is the process-wide logger. It is replaced in PersistentPreRun
// once the --verbose flag is known.
var logger = newLogger(os.Stderr, false)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
//
// Unlike a pure dispatcher, the root command has an action: invoked with no
// arguments it provisions the environment, exactly like `install`.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "daseg-bootstrap",
		Short: "Provision the dialogue-act segmentation research environment",
		Long: `daseg-bootstrap prepares a local development environment for dialogue-act
segmentation research. It clones the Switchboard Dialog Act corpus tools,
generates a packaging manifest for them, installs them in editable mode,
extracts the bundled corpus archive, downloads the spaCy English model,
and installs a pinned release of the transformers toolkit in editable mode.

All of it lands under ./deps. Steps run strictly in order; the first
failure stops the run and its exit status becomes the process exit code.
Nothing is rolled back: remove ./deps before running again.`,

		Args: cobra.NoArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = newLogger(cmd.ErrOrStderr(), verbose)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runInstall(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (.jsonc, .json, .yaml, .yml)")
	rootCmd.PersistentFlags().StringVar(&depsDir, "deps-dir", "", "Dependency directory (default: deps)")
	rootCmd.PersistentFlags().StringVar(&pythonBin, "python", "", "Python interpreter used for pip and spaCy (default: python)")

	rootCmd.AddCommand(NewInstallCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewVerifyCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go.
//
// SIGINT and SIGTERM cancel the command context, which kills any running
// child process. The exit code is taken from the first failing tool when
// there is one, otherwise from the CLIError category.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		printError(os.Stderr, err.Error())
		os.Exit(int(model.ExitCodeOf(err)))
	}
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag. Errors always go to
// stderr, even in JSON mode, because stdout is reserved for successful
// command output.
func printError(w io.Writer, message string) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "Error: %s\n", message)
}

// newLogger builds the charmbracelet logger used for step progress.
func newLogger(w io.Writer, debug bool) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		Prefix: "daseg-bootstrap",
	})
	if debug {
		l.SetLevel(log.DebugLevel)
	}
	return l
}

// VerboseLog prints a message only when verbose mode is enabled.
func VerboseLog(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig resolves the configuration, giving flags the user actually
// set the highest precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("deps-dir") {
		overrides[config.KeyDepsDir] = depsDir
	}
	if flags.Changed("python") {
		overrides[config.KeyPython] = pythonBin
	}

	cfg, err := config.Load(config.LoadOptions{ConfigFile: configFile, Overrides: overrides})
	if err != nil {
		return nil, err
	}
	VerboseLog("config: deps=%s python=%s corpus=%s toolkit=%s@%s",
		cfg.DepsDir, cfg.Python, cfg.Corpus.URL, cfg.Toolkit.URL, cfg.Toolkit.Tag)
	return cfg, nil
}

// services bundles the tool wrappers a command needs.
type services struct {
	git    *gitrepo.Manager
	python *python.Installer
}

// newServices wires the git and Python wrappers to a shared runner. Tool
// output goes to the terminal; in JSON mode tool stdout is moved to stderr
// so that stdout carries only the JSON document.
func newServices(cmd *cobra.Command, cfg *config.Config) *services {
	stdout := cmd.OutOrStdout()
	if jsonOutput {
		stdout = cmd.ErrOrStderr()
	}
	runner := command.NewRunner(stdout, cmd.ErrOrStderr(), logger)
	return &services{
		git:    gitrepo.NewManager(runner),
		python: python.NewInstaller(runner, cfg.Python),
	}
}

// buildPlan loads the configuration and assembles the step plan.
func buildPlan(cmd *cobra.Command) (*config.Config, *services, *provision.Plan, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	svc := newServices(cmd, cfg)
	plan, err := provision.BuildPlan(cfg, svc.git, svc.python)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, svc, plan, nil
}
