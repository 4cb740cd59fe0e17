package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newWritersCmd() *cobra.Command {
	var schema bool

	cmd := &cobra.Command{
		Use:   "writers",
		Short: "List the available report writer plugins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if schema {
				schemas := make(map[string]any)
				for _, p := range registry.ListWriters() {
					schemas[p.Name()] = p.ConfigSchema()
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(schemas)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range registry.ListWriters() {
				fmt.Fprintf(tw, "%s\t%s\n", p.Name(), p.Description())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&schema, "schema", false, "print each plugin's configuration schema as JSON")
	return cmd
}
