package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/orchestrator"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// ErrExtractionFailed is returned when at least one document produced no form
var ErrExtractionFailed = errors.New("extraction failed")

type extractOptions struct {
	model        string
	instructions string
	full         bool
	verbose      bool
}

// batchItem is one document of a multi-document run
type batchItem struct {
	Path   string               `json:"path"`
	Error  string               `json:"error,omitempty"`
	Tier   string               `json:"tier,omitempty"`
	Schema *schema.Form         `json:"schema,omitempty"`
	Result *orchestrator.Result `json:"result,omitempty"`
}

func newExtractCmd(format *string) *cobra.Command {
	var opts extractOptions

	cmd := &cobra.Command{
		Use:   "extract <document>...",
		Short: "Extract form schemas from documents",
		Long: `Extract an xf form schema from each document.

With one document the schema is written on its own; with several, a list of
{path, error, tier, schema} entries is written. --full includes the winning tier,
the validation report and every tier attempt.`,
		Example: `  formschema extract reports/site-inspection.pdf
  formschema extract --model basic --format yaml intake.docx
  formschema extract --verbose --concurrency 8 templates/*.pdf`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			return runExtract(cmd.Context(), cfg, opts, args, cmd.OutOrStdout(), cmd.ErrOrStderr(), *format)
		},
	}

	config.DefineFlags(cmd.Flags(), config.DefaultConfig())
	cmd.Flags().StringVar(&opts.model, "model", "", "model for this run: 'ft:...' for a fine-tuned model, 'basic' to skip AI")
	cmd.Flags().StringVar(&opts.instructions, "instructions", "", "extra instructions appended to the AI prompt")
	cmd.Flags().BoolVar(&opts.full, "full", false, "write the full result instead of the schema alone")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "stream progress events to stderr")
	return cmd
}

func runExtract(ctx context.Context, cfg *config.Config, opts extractOptions, paths []string, stdout, stderr io.Writer, format string) error {
	stderr = &syncWriter{w: stderr}
	logger := cfg.NewLogger(stderr)
	events := progress.NewLog(progress.WithLogger(logger))
	o, err := orchestrator.FromConfig(cfg, logger, events)
	if err != nil {
		return err
	}

	items := make([]batchItem, len(paths))
	var (
		reqs  []orchestrator.Request
		index []int
	)
	for i, path := range paths {
		items[i].Path = path
		doc, err := document.Open(path, cfg.MaxFileSize)
		if err != nil {
			items[i].Error = err.Error()
			continue
		}
		reqs = append(reqs, orchestrator.Request{
			Document:     doc,
			Model:        opts.model,
			Instructions: opts.instructions,
			SessionID:    uuid.NewString(),
		})
		index = append(index, i)
	}

	var wg sync.WaitGroup
	if opts.verbose {
		subCtx, stop := context.WithCancel(ctx)
		for _, req := range reqs {
			ch := events.Subscribe(subCtx, req.SessionID, 64)
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				for ev := range ch {
					fmt.Fprintf(stderr, "[%s] %s: %s\n", name, ev.Type, ev.Message)
				}
			}(req.Document.Name)
		}
		defer func() {
			stop()
			wg.Wait()
		}()
	}

	outcomes, err := o.ExtractAll(ctx, reqs)
	if err != nil {
		return err
	}

	failed := 0
	for j, out := range outcomes {
		i := index[j]
		if out.Err != nil {
			items[i].Error = out.Err.Error()
			continue
		}
		items[i].Tier = out.Result.Tier
		items[i].Schema = out.Result.Form
		if opts.full {
			items[i].Result = out.Result
		}
	}
	for _, item := range items {
		if item.Error != "" {
			failed++
		}
	}

	if len(items) == 1 {
		item := items[0]
		if item.Error != "" {
			return fmt.Errorf("%w: %s: %s", ErrExtractionFailed, item.Path, item.Error)
		}
		if opts.full {
			return writeOutput(stdout, format, item.Result)
		}
		return writeOutput(stdout, format, item.Schema)
	}

	if opts.full {
		for i := range items {
			items[i].Schema = nil
		}
	}
	if err := writeOutput(stdout, format, items); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d documents", ErrExtractionFailed, failed, len(items))
	}
	return nil
}

// syncWriter serializes writes from the logger and the progress printers
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}
