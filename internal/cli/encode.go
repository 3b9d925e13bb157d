package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encode <view.yaml> [key=value ...]",
		Short: "Round-trip parameters through the state codec",
		Long: `Decode URL-style parameters into interaction state and serialize the
state back. The output is the canonical parameter set: unknown keys
dropped, malformed values degraded, page 1 and empty sort omitted.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(rootOpts, args[0], args[1:], cmd)
		},
	}
	return cmd
}

func runEncode(opts *RootOptions, path string, rest []string, cmd *cobra.Command) error {
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

	encoded := view.EncodeState(view.DecodeParams(params))

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return printJSON(out, encoded)
	}
	keys := make([]string, 0, len(encoded))
	for k := range encoded {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "%s=%s\n", k, encoded[k])
	}
	return nil
}
