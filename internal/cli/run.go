package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumenstore/lumen/internal/harness"
)

// RunResult holds a scenario transcript for JSON output.
type RunResult struct {
	Scenario   string `json:"scenario"`
	Transcript string `json:"transcript"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario and print its transcript",
		Long: `Run a scenario file against a fresh in-memory database.

The scenario names a schema, a subscription, and a list of write steps.
The transcript shows the subscribed output after the initial fetch and
after every step.

Example:
  lumen run ./scenarios/order_moves.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, cmd, args[0])
		},
	}
}

func runScenario(opts *RootOptions, cmd *cobra.Command, path string) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E003", err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("loading scenario: %v", err))
	}
	formatter.VerboseLog("scenario %s: %d setup step(s), %d step(s)", scenario.Name, len(scenario.Setup), len(scenario.Steps))

	transcript, err := harness.Run(cmd.Context(), scenario)
	if err != nil {
		_ = formatter.Error("E005", err.Error(), nil)
		return NewExitError(ExitFailure, fmt.Sprintf("running scenario: %v", err))
	}

	if formatter.Format == "json" {
		return formatter.Success(RunResult{Scenario: scenario.Name, Transcript: transcript})
	}
	fmt.Fprint(formatter.Writer, transcript)
	return nil
}
