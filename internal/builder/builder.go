// Package builder assembles form schemas from classified sections and
// applies the naming and enrichment passes every schema goes through.
package builder

import (
	"log/slog"

	"github.com/a3tai/pdf-form-schema/internal/classify"
	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// Builder turns document text into a form with one profile
type Builder struct {
	profile *classify.Profile
	segOpts segment.Options
	logger  *slog.Logger
}

// Option configures a Builder
type Option func(*Builder)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithSegmentOptions sets the segmentation options
func WithSegmentOptions(o segment.Options) Option {
	return func(b *Builder) { b.segOpts = o }
}

// WithCatalog replaces the profile's heading catalog
func WithCatalog(c *segment.Catalog) Option {
	return func(b *Builder) {
		if c != nil {
			b.profile = b.profile.WithCatalog(c)
		}
	}
}

// New creates a builder for profile
func New(profile *classify.Profile, opts ...Option) *Builder {
	b := &Builder{profile: profile, logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Profile returns the classification profile
func (b *Builder) Profile() *classify.Profile { return b.profile }

// Build segments text and turns every section that yields fields into a page
func (b *Builder) Build(text string) *schema.Form {
	secs := segment.Segment(text, b.profile.Catalog(), b.segOpts)
	return b.BuildSections(secs)
}

// BuildSections turns already segmented sections into a form. Sections
// without text or without fields produce no page.
func (b *Builder) BuildSections(secs *segment.Sections) *schema.Form {
	form := schema.NewForm()
	for _, sec := range secs.All() {
		if sec.Blank() {
			continue
		}
		children := b.profile.Classify(sec)
		if len(children) == 0 {
			continue
		}
		form.AddPage(schema.NewPage(sec.Key, pageLabel(sec), children...))
	}
	Finalize(form)

	b.logger.Debug("built form",
		"profile", b.profile.Name(),
		"sections", len(secs.Keys()),
		"pages", len(form.Pages),
		"fields", form.FieldCount())
	return form
}

func pageLabel(sec *segment.Section) string {
	if sec.Title != "" {
		return sec.Title
	}
	return segment.TitleCase(sec.Key)
}

// FromStructure builds a form from the document layout rather than its
// section headings
func FromStructure(x *document.Extraction) *schema.Form {
	form := schema.NewForm()
	for _, p := range classify.Structure(x) {
		if len(p.Children) > 0 {
			form.AddPage(p)
		}
	}
	Finalize(form)
	return form
}

// Finalize applies the passes shared by every tier: unique names per page,
// select placeholders and enrichment
func Finalize(form *schema.Form) {
	if form == nil {
		return
	}
	for _, p := range form.Pages {
		UniqueNames(p.Children)
		schema.Walk(p.Children, func(n schema.Node) {
			if f, ok := n.(*schema.Field); ok {
				schema.EnsureOptions(f)
			}
		})
		Enrich(p.Children)
	}
}

// DefaultForm is the minimal schema returned when nothing else produced
// fields: the document name, inspection date, inspector and notes
func DefaultForm(docName string) *schema.Form {
	form := schema.NewForm()
	form.AddPage(schema.NewPage("general_information", "General Information",
		schema.NewField(schema.KindString, "document_name", "Document Name").WithDefault(docName).Required(),
		schema.NewField(schema.KindDate, "inspection_date", "Inspection Date").Prepopulate(schema.PrepopulateDateToday),
		schema.NewField(schema.KindString, "inspector_name", "Inspector Name").Prepopulate(schema.PrepopulateUserName),
		schema.NewField(schema.KindText, "notes", "Notes"),
	))
	return form
}
