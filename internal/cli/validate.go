package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tablekit/tablekit"
)

// ValidationResult is the JSON shape of one validation run.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <view.yaml>",
		Short: "Check a view definition file",
		Long: `Load a view definition, build its schema graph and columns, and report
every configuration problem: bad field-path syntax, invalid schema
structure, duplicate columns, and column paths that do not resolve.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	var problems []string
	file, err := LoadViewFile(path)
	if err != nil {
		problems = append(problems, err.Error())
	}

	var view *tablekit.View
	if file != nil {
		view, err = file.BuildView()
		if err != nil {
			problems = append(problems, err.Error())
		}
	}
	if view != nil {
		defer view.Close()
		// NewView keeps unresolvable columns with a text fallback; for a
		// config check they are findings.
		for _, col := range view.Columns() {
			if !col.Found {
				problems = append(problems, fmt.Sprintf("column %s does not resolve on the schema", col.Field))
			}
		}
	}

	if len(problems) > 0 {
		if opts.Format == "json" {
			if err := printJSON(out, ValidationResult{Valid: false, Errors: problems}); err != nil {
				return err
			}
		} else {
			for _, p := range problems {
				fmt.Fprintf(out, "error: %s\n", p)
			}
		}
		return fmt.Errorf("%d problem(s) in %s", len(problems), path)
	}

	if opts.Format == "json" {
		return printJSON(out, ValidationResult{Valid: true})
	}
	fmt.Fprintf(out, "%s: %d column(s), ok\n", path, len(view.Columns()))
	return nil
}
