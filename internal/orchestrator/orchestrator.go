// Package orchestrator runs the extraction waterfall: AI tiers first, then
// the heuristic builders, then the minimal default form.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/pdf-form-schema/internal/builder"
	"github.com/a3tai/pdf-form-schema/internal/classify"
	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/inference"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// Tier names, in waterfall order
const (
	TierFineTuned = "ai_finetuned"
	TierGeneral   = "ai_general"
	TierEnhanced  = "enhanced"
	TierBasic     = "basic"
	TierStructure = "structure"
	TierDefault   = "default"
)

// Attempt outcomes
const (
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeSucceeded = "succeeded"
)

// DefaultConcurrency bounds ExtractAll when no limit is configured
const DefaultConcurrency = 4

// Request is one document to turn into a form
type Request struct {
	Document     *document.Document
	Model        string
	Instructions string
	SessionID    string
}

// Attempt records what one tier did
type Attempt struct {
	Tier     string        `json:"tier"`
	Outcome  string        `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Result is the form produced for a request and how it was obtained
type Result struct {
	SessionID  string               `json:"session_id"`
	Form       *schema.Form         `json:"schema"`
	Tier       string               `json:"tier"`
	Validation schema.Result        `json:"validation"`
	Attempts   []Attempt            `json:"attempts"`
	Extraction *document.Extraction `json:"-"`
}

type run struct {
	req   Request
	x     *document.Extraction
	text  string
	model string
}

type tier struct {
	name    string
	applies func(*run) string
	build   func(context.Context, *run) (*schema.Form, error)
}

// Orchestrator turns documents into forms. It holds no per-document state
// and is safe for concurrent use.
type Orchestrator struct {
	extractor    *document.Extractor
	client       inference.Client
	prompts      *inference.Prompts
	enhanced     *builder.Builder
	basic        *builder.Builder
	notifier     progress.Notifier
	logger       *slog.Logger
	defaultModel string
	generalAI    bool
	concurrency  int
	newID        func() string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClient sets the inference client used by the AI tiers
func WithClient(c inference.Client) Option {
	return func(o *Orchestrator) { o.client = c }
}

// WithGeneralAI toggles the general-purpose AI tier. Fine-tuned models are
// still used when a request names one and a client is set.
func WithGeneralAI(enabled bool) Option {
	return func(o *Orchestrator) { o.generalAI = enabled }
}

// WithPrompts sets the prompt builder
func WithPrompts(p *inference.Prompts) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.prompts = p
		}
	}
}

// WithNotifier sets the progress sink
func WithNotifier(n progress.Notifier) Option {
	return func(o *Orchestrator) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExtractor replaces the document extractor
func WithExtractor(e *document.Extractor) Option {
	return func(o *Orchestrator) {
		if e != nil {
			o.extractor = e
		}
	}
}

// WithBuilders replaces the enhanced and basic heuristic builders
func WithBuilders(enhanced, basic *builder.Builder) Option {
	return func(o *Orchestrator) {
		if enhanced != nil {
			o.enhanced = enhanced
		}
		if basic != nil {
			o.basic = basic
		}
	}
}

// WithDefaultModel sets the model used by the general AI tier when the
// request names none
func WithDefaultModel(model string) Option {
	return func(o *Orchestrator) { o.defaultModel = strings.TrimSpace(model) }
}

// WithConcurrency bounds the documents ExtractAll processes at once
func WithConcurrency(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithIDGenerator replaces the session id generator
func WithIDGenerator(fn func() string) Option {
	return func(o *Orchestrator) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// New creates an orchestrator. Without a client the AI tiers are skipped.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		notifier:     progress.Discard,
		logger:       slog.Default(),
		defaultModel: inference.DefaultModel,
		generalAI:    true,
		concurrency:  DefaultConcurrency,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.extractor == nil {
		o.extractor = document.NewExtractor(document.WithLogger(o.logger))
	}
	if o.prompts == nil {
		o.prompts = inference.NewPrompts(inference.PromptOptions{Logger: o.logger})
	}
	if o.enhanced == nil {
		o.enhanced = builder.New(classify.Enhanced(), builder.WithLogger(o.logger))
	}
	if o.basic == nil {
		o.basic = builder.New(classify.Basic(), builder.WithLogger(o.logger))
	}
	return o
}

// AIEnabled reports whether an inference client is configured
func (o *Orchestrator) AIEnabled() bool { return o.client != nil }

// Extract reads the document and runs the waterfall. Only a document that
// cannot be read at all, or a cancelled context, is an error; every tier
// failure falls through and the default form is always available.
func (o *Orchestrator) Extract(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		req.SessionID = o.newID()
	}
	o.notify(req.SessionID, progress.EventStarted, "extraction started", map[string]any{
		"document": documentName(req.Document),
	})

	x, err := o.extractor.Extract(ctx, req.Document)
	if err != nil {
		o.notify(req.SessionID, progress.EventError, err.Error(), nil)
		o.logger.Warn("document unreadable", "session", req.SessionID, "error", err)
		return nil, fmt.Errorf("extracting %s: %w", documentName(req.Document), err)
	}
	return o.ExtractFrom(ctx, req, x)
}

// ExtractFrom runs the waterfall on an extraction that has already been made
func (o *Orchestrator) ExtractFrom(ctx context.Context, req Request, x *document.Extraction) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.SessionID == "" {
		req.SessionID = o.newID()
	}
	if x == nil {
		x = &document.Extraction{}
	}
	if x.Kind == "" && req.Document != nil {
		x.Kind = req.Document.Kind
	}

	r := &run{req: req, x: x, text: x.Text(), model: strings.TrimSpace(req.Model)}
	o.notify(req.SessionID, progress.EventExtracted, "text extracted", map[string]any{
		"kind":        string(x.Kind),
		"units":       len(x.Pages),
		"characters":  len([]rune(r.text)),
		"form_fields": len(x.FormFields),
		"unit_errors": len(x.Errors),
	})

	res := &Result{SessionID: req.SessionID, Extraction: x}
	for _, t := range o.tiers() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		form, attempt := o.attempt(ctx, t, r)
		res.Attempts = append(res.Attempts, attempt)
		if attempt.Outcome != OutcomeSucceeded {
			continue
		}
		res.Form = form
		res.Tier = t.name
		res.Validation = form.Validate()
		break
	}
	if res.Form == nil {
		res.Form = builder.DefaultForm(documentName(req.Document))
		res.Tier = TierDefault
		res.Validation = res.Form.Validate()
	}

	o.notify(req.SessionID, progress.EventCompleted, "extraction completed", map[string]any{
		"tier":   res.Tier,
		"pages":  len(res.Form.Pages),
		"fields": res.Form.FieldCount(),
		"valid":  res.Validation.Valid,
	})
	o.logger.Info("extraction completed",
		"session", req.SessionID,
		"document", documentName(req.Document),
		"tier", res.Tier,
		"pages", len(res.Form.Pages),
		"fields", res.Form.FieldCount())
	return res, nil
}

func (o *Orchestrator) tiers() []tier {
	return []tier{
		{name: TierFineTuned, applies: o.fineTunedApplies, build: o.fineTuned},
		{name: TierGeneral, applies: o.generalApplies, build: o.general},
		{name: TierEnhanced, applies: heuristicApplies, build: func(_ context.Context, r *run) (*schema.Form, error) {
			return o.enhanced.Build(r.text), nil
		}},
		{name: TierBasic, applies: heuristicApplies, build: func(_ context.Context, r *run) (*schema.Form, error) {
			return o.basic.Build(r.text), nil
		}},
		{name: TierStructure, applies: structureApplies, build: func(_ context.Context, r *run) (*schema.Form, error) {
			return builder.FromStructure(r.x), nil
		}},
		{name: TierDefault, applies: func(*run) string { return "" }, build: func(_ context.Context, r *run) (*schema.Form, error) {
			return builder.DefaultForm(documentName(r.req.Document)), nil
		}},
	}
}

// attempt runs one tier. A tier succeeds when it returns a valid form with
// at least one populated page; panics count as failures.
func (o *Orchestrator) attempt(ctx context.Context, t tier, r *run) (form *schema.Form, a Attempt) {
	a.Tier = t.name
	sid := r.req.SessionID
	if reason := t.applies(r); reason != "" {
		a.Outcome = OutcomeSkipped
		a.Reason = reason
		o.notify(sid, progress.EventTierSkipped, reason, map[string]any{"tier": t.name})
		o.logger.Debug("tier skipped", "session", sid, "tier", t.name, "reason", reason)
		return nil, a
	}

	o.notify(sid, progress.EventTierStart, "trying "+t.name, map[string]any{"tier": t.name})
	start := time.Now()
	defer func() {
		a.Duration = time.Since(start)
		if p := recover(); p != nil {
			form = nil
			a.Outcome = OutcomeFailed
			a.Reason = fmt.Sprintf("panic: %v", p)
			o.logger.Error("tier panicked", "session", sid, "tier", t.name, "panic", p)
			o.notify(sid, progress.EventTierFailed, a.Reason, map[string]any{"tier": t.name})
		}
	}()

	form, err := t.build(ctx, r)
	if err == nil {
		err = accept(form)
	}
	if err != nil {
		a.Outcome = OutcomeFailed
		a.Reason = err.Error()
		o.logger.Warn("tier failed", "session", sid, "tier", t.name, "error", err)
		o.notify(sid, progress.EventTierFailed, a.Reason, map[string]any{"tier": t.name})
		return nil, a
	}
	a.Outcome = OutcomeSucceeded
	return form, a
}

func accept(form *schema.Form) error {
	if form == nil || !form.Populated() {
		return errors.New("no populated pages")
	}
	if v := form.Validate(); !v.Valid {
		return fmt.Errorf("invalid schema: %s", v.Error())
	}
	return nil
}

func (o *Orchestrator) fineTunedApplies(r *run) string {
	switch {
	case !inference.IsFineTuned(r.model):
		return "no fine-tuned model requested"
	case o.client == nil:
		return "inference client not configured"
	case strings.TrimSpace(r.text) == "":
		return "no document text"
	}
	return ""
}

func (o *Orchestrator) generalApplies(r *run) string {
	switch {
	case inference.IsFineTuned(r.model):
		return "fine-tuned model requested"
	case !o.generalAI || o.client == nil:
		return "inference disabled"
	case o.generalModel(r) == "":
		return "no model selected"
	case strings.EqualFold(o.generalModel(r), inference.BasicModel):
		return "basic model requested"
	case strings.TrimSpace(r.text) == "":
		return "no document text"
	}
	return ""
}

func (o *Orchestrator) generalModel(r *run) string {
	if r.model != "" {
		return r.model
	}
	return o.defaultModel
}

func heuristicApplies(r *run) string {
	if r.x.Kind != document.KindPDF {
		return "heuristics read PDF text only"
	}
	if strings.TrimSpace(r.text) == "" {
		return "no document text"
	}
	return ""
}

func structureApplies(r *run) string {
	switch r.x.Kind {
	case document.KindDOCX, document.KindXLSX:
		return ""
	case document.KindPDF:
		if len(r.x.FormFields) > 0 {
			return ""
		}
		return "no interactive form fields"
	}
	return "no structure for " + string(r.x.Kind)
}

func (o *Orchestrator) fineTuned(ctx context.Context, r *run) (*schema.Form, error) {
	req, fewShot := o.prompts.FineTuned(r.model, r.text, r.req.Instructions)
	o.logger.Debug("fine-tuned request", "session", r.req.SessionID, "model", r.model, "few_shot", fewShot)
	return o.infer(ctx, req)
}

func (o *Orchestrator) general(ctx context.Context, r *run) (*schema.Form, error) {
	return o.infer(ctx, o.prompts.General(o.generalModel(r), r.text, r.req.Instructions))
}

// infer sends req and turns the reply into a finalized form. The raw reply is
// validated before finalizing so placeholder options cannot hide a select
// the model left empty.
func (o *Orchestrator) infer(ctx context.Context, req inference.Request) (*schema.Form, error) {
	content, err := o.client.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	form, err := inference.ParseForm(content)
	if err != nil {
		return nil, err
	}
	if v := form.Validate(); !v.Valid {
		return nil, fmt.Errorf("%w: %s", inference.ErrMalformedResponse, v.Error())
	}
	builder.Finalize(form)
	return form, nil
}

func (o *Orchestrator) notify(sessionID, eventType, message string, data map[string]any) {
	o.notifier.Notify(sessionID, eventType, message, data)
}

func documentName(doc *document.Document) string {
	if doc == nil || doc.Name == "" {
		return "document"
	}
	return doc.BaseName()
}

// Outcome pairs a request's result with its error in ExtractAll
type Outcome struct {
	Result *Result
	Err    error
}

// ExtractAll runs Extract for every request concurrently, at most the
// configured number at a time. Results keep the order of reqs. A document
// error stays in its own Outcome; only cancellation of ctx stops the batch.
func (o *Orchestrator) ExtractAll(ctx context.Context, reqs []Request) ([]Outcome, error) {
	out := make([]Outcome, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := o.Extract(gctx, req)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			out[i] = Outcome{Result: res, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
