package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/vmtest/internal/spec"
)

// ValidateOutput is the validate command's structured result.
type ValidateOutput struct {
	Valid    bool     `json:"valid"`
	SpecName string   `json:"spec_name,omitempty"`
	Modules  []string `json:"modules,omitempty"`
	Commands int      `json:"commands,omitempty"`
	Payload  string   `json:"payload,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <spec.yaml>",
		Short: "Validate a test spec without running it",
		Long: `Load, normalize, and schema-check a test spec without executing anything.

Reports the canonical module list and the transport payload that a run
would hand to the execution environment.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, specPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	ts, err := spec.Load(specPath)
	if err != nil {
		if formatter.JSON() {
			_ = formatter.Success(ValidateOutput{Valid: false, Error: err.Error()})
		} else {
			_ = formatter.Failure(err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "invalid spec", err)
	}

	payload, err := ts.Payload()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to serialize payload", err)
	}

	out := ValidateOutput{
		Valid:    true,
		SpecName: ts.Name,
		Modules:  ts.Modules,
		Commands: len(ts.Commands),
		Payload:  string(payload),
	}
	if formatter.JSON() {
		return formatter.Success(out)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s is valid (%d modules, %d commands)\n", out.SpecName, len(out.Modules), out.Commands)
	if opts.Verbose {
		fmt.Fprintf(formatter.Writer, "Payload: %s\n", out.Payload)
	}
	return nil
}
