package inference

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/a3tai/pdf-form-schema/internal/schema"
)

const (
	// DefaultMaxPromptChars bounds the document text sent in one request
	DefaultMaxPromptChars = 15000
	// DefaultFewShotMaxChars is the longest document that still gets the
	// reference example
	DefaultFewShotMaxChars = 6000
	// FineTunedPrefix marks fine-tuned model identifiers
	FineTunedPrefix = "ft:"
	// BasicModel selects the heuristic parsers only
	BasicModel = "basic"
)

// System messages for the two prompt styles
const (
	GeneralSystem   = "You are a form extraction expert. Return only valid JSON."
	FineTunedSystem = "You are an expert form parser that extracts structured data from documents and creates JSON schemas in xf:* format."
)

const grammar = `Build a form schema for the document below using the xf:* JSON grammar.

DOCUMENT TEXT:
%s

RULES:
1. Capture every field, checkbox, text area and data entry point in the document.
2. Split the fields into pages that follow the document's sections.
3. Element types:
   - xf:string  short text
   - xf:text    long text or comments
   - xf:date    dates
   - xf:time    times and durations
   - xf:boolean yes/no questions
   - xf:ternary yes/no/N.A. questions
   - xf:select  choices; put the options in xfOptions, one per line
   - xf:number  numeric values
   - xf:signature signatures
   - xf:file    attachments
   - xf:hidden  values the user never sees
   - xf:group   a labeled block of related fields
   - xf:multivalue a repeating block
4. Every field needs xfName (lower snake_case, unique within its page) and xfLabel.
   Use the label text exactly as printed in the document.
5. Optional attributes: xfRequired, xfDefaultValue, xfMultiple,
   xfPrepopulateValueType with xfPrepopulateValueEnabled (date_today, time_today,
   user_name, user_title, location_name, location_address, select_last_report,
   boolean_last_report, ternary_last_report, last_report), and xfWhen with
   xfWhenEnabled for fields shown only after another field is answered
   (add "xfWhenContextValueType": "{{TYPE_FALSE}}" to show them on a no).
6. Reply with a single JSON object shaped like:
{
  "name": "xf:form",
  "props": {
    "xfPageNavigation": "toc",
    "children": [
      {
        "name": "xf:page",
        "props": {"xfName": "page_name", "xfLabel": "Page Label", "children": []}
      }
    ]
  }
}
No prose, no code fences.`

// Reference is a previously produced schema used as a worked example. When
// DocumentText is empty the schema is shown on its own.
type Reference struct {
	DocumentText string          `json:"document_text"`
	Schema       json.RawMessage `json:"extracted_schema"`
}

// PromptOptions configures prompt construction
type PromptOptions struct {
	MaxPromptChars  int
	FewShotMaxChars int
	ReferencePath   string
	Logger          *slog.Logger
}

// Prompts builds inference requests. The reference example is read from disk
// at most once, on first use.
type Prompts struct {
	maxChars     int
	fewShotChars int
	refPath      string
	logger       *slog.Logger

	once   sync.Once
	ref    *Reference
	refErr error
}

// NewPrompts creates a prompt builder
func NewPrompts(opts PromptOptions) *Prompts {
	if opts.MaxPromptChars <= 0 {
		opts.MaxPromptChars = DefaultMaxPromptChars
	}
	if opts.FewShotMaxChars <= 0 {
		opts.FewShotMaxChars = DefaultFewShotMaxChars
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Prompts{
		maxChars:     opts.MaxPromptChars,
		fewShotChars: opts.FewShotMaxChars,
		refPath:      opts.ReferencePath,
		logger:       opts.Logger,
	}
}

// IsFineTuned reports whether model names a fine-tuned model
func IsFineTuned(model string) bool {
	return strings.HasPrefix(strings.TrimSpace(model), FineTunedPrefix)
}

// Truncate shortens text to at most n runes
func Truncate(text string, n int) string {
	if n <= 0 {
		return text
	}
	if len(text) <= n {
		return text
	}
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// General builds the request for a general-purpose model
func (p *Prompts) General(model, text, instructions string) Request {
	prompt := fmt.Sprintf(grammar, Truncate(text, p.maxChars))
	if s := strings.TrimSpace(instructions); s != "" {
		prompt += "\n\nADDITIONAL INSTRUCTIONS:\n" + s
	}
	return Request{
		Model:    model,
		System:   GeneralSystem,
		Prompt:   prompt,
		JSONMode: true,
	}
}

// FineTuned builds the request for a fine-tuned model. Documents no longer
// than the few-shot budget get the reference example; the second result
// reports whether it was included.
func (p *Prompts) FineTuned(model, text, instructions string) (Request, bool) {
	req := Request{
		Model:    model,
		System:   FineTunedSystem,
		Prompt:   extractPrompt(Truncate(text, p.maxChars)),
		JSONMode: true,
	}
	if s := strings.TrimSpace(instructions); s != "" {
		req.Prompt += "\n\nADDITIONAL INSTRUCTIONS:\n" + s
	}

	if len([]rune(text)) > p.fewShotChars {
		return req, false
	}
	ref, err := p.Reference()
	if err != nil || ref == nil {
		return req, false
	}
	if ref.DocumentText != "" {
		req.Examples = []Exchange{{
			User:      extractPrompt(Truncate(ref.DocumentText, p.fewShotChars)),
			Assistant: string(ref.Schema),
		}}
	} else {
		req.Prompt = "Schema produced for a similar document:\n" + string(ref.Schema) + "\n\n" + req.Prompt
	}
	return req, true
}

func extractPrompt(text string) string {
	return "Extract the form schema from this document:\n\n" + text
}

// Reference loads the reference example. No path configured yields nil
// without error. The outcome is cached.
func (p *Prompts) Reference() (*Reference, error) {
	p.once.Do(func() {
		if p.refPath == "" {
			return
		}
		p.ref, p.refErr = loadReference(p.refPath)
		if p.refErr != nil {
			p.logger.Warn("reference schema unavailable", "path", p.refPath, "error", p.refErr)
			return
		}
		p.logger.Debug("loaded reference schema", "path", p.refPath, "bytes", len(p.ref.Schema))
	})
	return p.ref, p.refErr
}

func loadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference: %w", err)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parsing reference: %w", err)
	}

	ref := &Reference{}
	if _, ok := envelope["extracted_schema"]; ok {
		if err := json.Unmarshal(data, ref); err != nil {
			return nil, fmt.Errorf("parsing reference: %w", err)
		}
	} else {
		ref.Schema = data
	}

	if res := schema.ValidateJSON(ref.Schema); !res.Valid {
		return nil, fmt.Errorf("reference schema invalid: %w", res)
	}

	compact, err := compactJSON(ref.Schema)
	if err != nil {
		return nil, err
	}
	ref.Schema = compact
	return ref, nil
}
