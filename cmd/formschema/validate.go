package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// ErrInvalidSchema is returned when at least one schema fails validation
var ErrInvalidSchema = errors.New("schema validation failed")

type validation struct {
	Path string `json:"path"`
	schema.Result
}

func newValidateCmd(format *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema.json>...",
		Short: "Check xf form schemas against the structural rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			results := make([]validation, 0, len(args))
			invalid := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("reading %s: %w", path, err)
				}
				res := schema.ValidateJSON(data)
				if !res.Valid {
					invalid++
				}
				results = append(results, validation{Path: path, Result: res})
			}

			if err := writeOutput(cmd.OutOrStdout(), *format, results); err != nil {
				return err
			}
			if invalid > 0 {
				return fmt.Errorf("%w: %d of %d", ErrInvalidSchema, invalid, len(args))
			}
			return nil
		},
	}
}
