// Package cli wires view definition files to the engine: load a YAML view
// file, build the schema, columns and adapter it declares, and expose the
// query, validate, infer and encode verbs.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "text" | "json"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the tablekit root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tablekit",
		Short: "Declarative table queries over SQL data sources",
		Long: `tablekit compiles declarative table definitions (schema, columns,
data source) into filtered, sorted, paginated SQL queries and a URL-safe
serialization of the interaction state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.Verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewInferCommand(opts))
	cmd.AddCommand(NewEncodeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// parseParams splits key=value arguments into the parameter map the state
// codec consumes. A bare key becomes an empty value, which every filter
// kind treats as absent.
func parseParams(args []string) (map[string]string, error) {
	params := map[string]string{}
	for _, arg := range args {
		key, value, _ := strings.Cut(arg, "=")
		if key == "" {
			return nil, fmt.Errorf("invalid parameter %q (expected key=value)", arg)
		}
		params[key] = value
	}
	return params, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
