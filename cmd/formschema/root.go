package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// Output formats
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func newRootCmd() *cobra.Command {
	var format string

	root := &cobra.Command{
		Use:   "formschema",
		Short: "Turn inspection documents into xf form schemas",
		Long: `formschema reads PDF, DOCX and XLSX inspection documents and produces
xf form schemas: pages of typed fields with options, defaults and
conditional logic.

Extraction runs through a waterfall of strategies:
  - fine-tuned and general AI models when an API key is configured
  - keyword heuristics with a full and a reduced section catalog
  - layout rules for Word, Excel and interactive PDF forms
  - a minimal four-field form as the guaranteed fallback`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if format != FormatJSON && format != FormatYAML {
				return fmt.Errorf("invalid output format %q (want %s or %s)", format, FormatJSON, FormatYAML)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&format, "format", "f", FormatJSON, "output format: json or yaml")

	root.AddCommand(
		newExtractCmd(&format),
		newValidateCmd(&format),
		newVersionCmd(),
	)
	return root
}

// writeOutput encodes v to w in the requested format. YAML goes through the
// JSON encoding so custom marshalers and json tags shape both outputs.
func writeOutput(w io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	if format == FormatYAML {
		var tree any
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		if data, err = yaml.Marshal(tree); err != nil {
			return fmt.Errorf("encoding output: %w", err)
		}
		_, err = w.Write(data)
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
