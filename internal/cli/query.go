package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nonibytes/tablekit/tablekit/planner"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Explain bool
	IDs     bool
}

// QueryResult is the JSON shape of one query run.
type QueryResult struct {
	Rows []map[string]any `json:"rows,omitempty"`
	IDs  []any            `json:"ids,omitempty"`
	Meta any              `json:"meta,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <view.yaml> [key=value ...]",
		Short: "Run URL-style parameters against a view",
		Long: `Decode URL-style parameters into interaction state, compile the page
query and execute it against the view's data source.

Parameters use the serialized state syntax: filter values keyed by field
path (embedded segments written with __), ranges as "min,max" or _min/_max
sub-keys, "sort" as a comma list with a - prefix for descending, "page"
as a positive integer.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Explain, "explain", false, "print the compiled SQL instead of executing")
	cmd.Flags().BoolVar(&opts.IDs, "ids", false, "fetch every matching root key instead of one page")

	return cmd
}

func runQuery(opts *QueryOptions, path string, rest []string, cmd *cobra.Command) error {
	params, err := parseParams(rest)
	if err != nil {
		return err
	}
	file, err := LoadViewFile(path)
	if err != nil {
		return err
	}
	view, err := file.BuildView()
	if err != nil {
		return err
	}
	defer view.Close()

	st := view.DecodeParams(params)
	out := cmd.OutOrStdout()

	if opts.Explain {
		var q planner.Query
		var err error
		if opts.IDs {
			q, err = view.PlanIDs(st)
		} else {
			q, err = view.Plan(st)
		}
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return printJSON(out, q)
		}
		fmt.Fprintln(out, q.SelectSQL)
		if q.CountSQL != "" {
			fmt.Fprintln(out, q.CountSQL)
		}
		fmt.Fprintf(out, "args: %v\n", q.Args)
		return nil
	}

	ctx := cmd.Context()
	if opts.IDs {
		ids, err := view.FetchIDs(ctx, st)
		if err != nil {
			return err
		}
		if opts.Format == "json" {
			return printJSON(out, QueryResult{IDs: ids})
		}
		for _, id := range ids {
			fmt.Fprintln(out, id)
		}
		fmt.Fprintf(out, "\n%d matching\n", len(ids))
		return nil
	}

	rows, meta, err := view.Fetch(ctx, st)
	if err != nil {
		return err
	}
	if opts.Format == "json" {
		return printJSON(out, QueryResult{Rows: rows, Meta: meta})
	}
	for _, row := range rows {
		line, _ := json.Marshal(row)
		fmt.Fprintln(out, string(line))
	}
	fmt.Fprintf(out, "\npage %d/%d, rows %d-%d of %d\n",
		meta.CurrentPage, meta.TotalPages, meta.StartIndex, meta.EndIndex, meta.TotalCount)
	return nil
}
