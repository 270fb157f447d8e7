package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// renderOutput writes v to stdout in the selected output format. The table
// callback receives a tabwriter so each command controls its own columns.
func renderOutput(v any, table func(w *tabwriter.Writer)) error {
	switch outputFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)

	case "yaml":
		encoder := yaml.NewEncoder(os.Stdout)
		defer encoder.Close()
		return encoder.Encode(v)

	case "table":
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		table(w)
		return w.Flush()

	default:
		return fmt.Errorf("unsupported output format: %s (use json, table, or yaml)", outputFormat)
	}
}
