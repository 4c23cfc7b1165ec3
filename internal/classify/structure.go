package classify

import (
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// MaxTableColumns bounds the columns of a table turned into a field group
const MaxTableColumns = 10

// Topic groups structure fields onto pages by label keyword
type Topic struct {
	Title    string
	Keywords []string
}

// DefaultTopic receives fields matching no other topic
const DefaultTopic = "General Information"

// Topics are checked in order; the first matching keyword wins
var Topics = []Topic{
	{Title: "Personal Information", Keywords: []string{"personal", "contact", "name", "email", "phone"}},
	{Title: "Schedule Information", Keywords: []string{"date", "time", "schedule", "appointment"}},
	{Title: "Location Details", Keywords: []string{"address", "location", "site", "place"}},
	{Title: "Additional Information", Keywords: []string{"comment", "note", "description", "detail"}},
}

// TopicOf returns the page title a label belongs on
func TopicOf(label string) string {
	lower := strings.ToLower(label)
	for _, t := range Topics {
		for _, k := range t.Keywords {
			if strings.Contains(lower, k) {
				return t.Title
			}
		}
	}
	return DefaultTopic
}

// Structure builds pages from the layout of a document without relying on
// section headings: fill-in blanks and checkbox lines grouped by topic,
// interactive form fields, and one group per table header row.
func Structure(x *document.Extraction) []*schema.Page {
	var pages []*schema.Page
	byTitle := map[string]*schema.Page{}
	pageFor := func(title string) *schema.Page {
		if p, ok := byTitle[title]; ok {
			return p
		}
		p := schema.NewPage(FieldName(title), title)
		byTitle[title] = p
		pages = append(pages, p)
		return p
	}

	seen := map[string]bool{}
	for _, line := range segment.Lines(x.Text()) {
		f := structureField(line)
		if f == nil || seen[f.Label] {
			continue
		}
		seen[f.Label] = true
		pageFor(TopicOf(f.Label)).Add(f)
	}

	if acro := AcroFields(x.FormFields); len(acro) > 0 {
		pageFor("Form Fields").Add(acro...)
	}

	var groups []schema.Node
	for _, pt := range x.Pages {
		for _, t := range pt.Tables {
			if g := tableGroup(t, pt.Label); g != nil {
				groups = append(groups, g)
			}
		}
	}
	if len(groups) > 0 {
		if len(pages) == 0 {
			pageFor(DefaultTopic)
		}
		pages[0].Add(groups...)
	}
	return pages
}

func structureField(line string) *schema.Field {
	if item, ok := CheckboxItem(line); ok && len([]rune(item)) > 3 {
		return schema.NewField(schema.KindBoolean, FieldName(item), item)
	}
	l, ok := ParseLabeled(line)
	if !ok || !l.IsBlank() || len([]rune(l.Label)) >= MaxLabelLength {
		return nil
	}
	name := FieldName(l.Label)
	if name == "" {
		return nil
	}
	f := schema.NewField(structureKind(l.Label), name, l.Label)
	lower := strings.ToLower(l.Label)
	switch {
	case strings.Contains(lower, "email"):
		f.Set(schema.PropFormat, schema.FormatEmail)
	case strings.Contains(lower, "phone") || strings.Contains(lower, "tel"):
		f.Set(schema.PropFormat, schema.FormatPhone)
	}
	if l.Value != "" {
		f.WithDefault(l.Value)
	}
	schema.EnsureOptions(f)
	return f
}

func structureKind(label string) schema.Kind {
	lower := strings.ToLower(label)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}
	switch {
	case has("date"):
		return schema.KindDate
	case has("time"):
		return schema.KindTime
	case has("email", "phone", "name"):
		return schema.KindString
	case has("address"):
		return schema.KindText
	case has("select", "choose"):
		return schema.KindSelect
	case has("number", "amount", "quantity"):
		return schema.KindNumber
	}
	return InferKind(label, "")
}

func tableGroup(t document.Table, label string) *schema.Group {
	header := t.Header()
	if len(header) > MaxTableColumns {
		header = header[:MaxTableColumns]
	}
	if label == "" {
		label = "Table Data"
	}
	g := schema.NewGroup(label)
	for _, h := range header {
		h = strings.TrimSpace(h)
		name := FieldName(h)
		if name == "" {
			continue
		}
		g.Children = append(g.Children, schema.NewField(schema.KindString, name, h))
	}
	if len(g.Children) == 0 {
		return nil
	}
	return g
}
