package document

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"
)

// DefaultMaxTextSize bounds the text kept per document
const DefaultMaxTextSize = 10 * 1024 * 1024

// Extractor turns documents into per-unit text. It holds no per-document
// state and is safe for concurrent use.
type Extractor struct {
	logger      *slog.Logger
	maxTextSize int
	acroForms   bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMaxTextSize bounds the total text kept per document
func WithMaxTextSize(n int) Option {
	return func(e *Extractor) { e.maxTextSize = n }
}

// WithAcroForms toggles reading interactive PDF form fields
func WithAcroForms(enabled bool) Option {
	return func(e *Extractor) { e.acroForms = enabled }
}

// NewExtractor creates an extractor
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		logger:      slog.Default(),
		maxTextSize: DefaultMaxTextSize,
		acroForms:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract pulls text, tables and structure out of doc. A failing page or
// sheet contributes empty text and a UnitError; only a document that cannot
// be opened at all returns an error, wrapping ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, doc *Document) (*Extraction, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", ErrUnreadable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		x   *Extraction
		err error
	)
	switch doc.Kind {
	case KindPDF:
		x, err = e.extractPDF(ctx, doc)
	case KindXLSX:
		x, err = e.extractXLSX(ctx, doc)
	case KindDOCX:
		x, err = e.extractDOCX(doc)
	case KindDOC, KindXLS:
		x = extractLegacy(doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, doc.Kind)
	}
	if err != nil {
		return nil, err
	}

	e.truncate(x)
	x.setMeta("units", strconv.Itoa(len(x.Pages)))
	if x.Degraded() {
		x.setMeta("failed_units", strconv.Itoa(len(x.Errors)))
		e.logger.Warn("document extracted with failed units",
			"document", doc.Name, "kind", doc.Kind, "failed", len(x.Errors))
	}
	e.logger.Debug("document extracted",
		"document", doc.Name, "kind", doc.Kind, "units", len(x.Pages), "chars", len(x.Text()))
	return x, nil
}

// truncate drops text past maxTextSize, keeping whole units where possible.
// A cut never splits a UTF-8 sequence.
func (e *Extractor) truncate(x *Extraction) {
	if e.maxTextSize <= 0 {
		return
	}
	total := 0
	for i := range x.Pages {
		remaining := e.maxTextSize - total
		if remaining <= 0 {
			x.Pages[i].Text = ""
			continue
		}
		text := x.Pages[i].Text
		if len(text) > remaining {
			cut := remaining
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			x.Pages[i].Text = text[:cut]
			x.setMeta("truncated", "true")
			total = e.maxTextSize
			continue
		}
		total += len(text)
	}
}
