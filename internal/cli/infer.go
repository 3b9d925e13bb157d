package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tablekit/tablekit/filter"
)

// InferredColumn is the JSON shape of one resolved column.
type InferredColumn struct {
	Field      string         `json:"field"`
	Label      string         `json:"label"`
	Kind       filter.Kind    `json:"kind"`
	Filterable bool           `json:"filterable"`
	Sortable   bool           `json:"sortable"`
	Resolved   bool           `json:"resolved"`
	Choices    []filter.Option `json:"choices,omitempty"`
}

// NewInferCommand creates the infer command.
func NewInferCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "infer <view.yaml>",
		Short: "Print the resolved filter kind per column",
		Long: `Resolve every column of a view definition against its schema and print
the filter kind and options inference picked (or the declaration
overrode).`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runInfer(opts *RootOptions, path string, cmd *cobra.Command) error {
	file, err := LoadViewFile(path)
	if err != nil {
		return err
	}
	view, err := file.BuildView()
	if err != nil {
		return err
	}
	defer view.Close()

	var cols []InferredColumn
	for _, c := range view.Columns() {
		cols = append(cols, InferredColumn{
			Field:      c.Field,
			Label:      c.Label,
			Kind:       c.Kind,
			Filterable: c.Filterable,
			Sortable:   c.Sortable,
			Resolved:   c.Found,
			Choices:    c.Options.Choices,
		})
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return printJSON(out, cols)
	}
	for _, c := range cols {
		flags := ""
		if c.Filterable {
			flags += " filterable"
		}
		if c.Sortable {
			flags += " sortable"
		}
		if !c.Resolved {
			flags += " (unresolved)"
		}
		fmt.Fprintf(out, "%-30s %-16s %s%s\n", c.Field, c.Kind, c.Label, flags)
		for _, choice := range c.Choices {
			fmt.Fprintf(out, "%-30s   - %s\n", "", choice.Value)
		}
	}
	return nil
}
