package classify

import (
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// MaxLabelLength bounds labels accepted from free-form "Label: value" lines
const MaxLabelLength = 50

// Generic turns every "Label: value" line into a field typed by the default
// kind rules. The value, when present, becomes the default. Repeated labels
// and labels of MaxLabelLength or more are skipped.
func Generic(sec *segment.Section) []schema.Node {
	return labeledFields(sec, defaultInferrer, false)
}

var basicInferrer = NewInferrer(BasicKindRules())

// BlankFields only accepts fill-in blanks ("Label: ____") and types them with
// the basic kind rules
func BlankFields(sec *segment.Section) []schema.Node {
	return labeledFields(sec, basicInferrer, true)
}

func labeledFields(sec *segment.Section, in *Inferrer, blanksOnly bool) []schema.Node {
	seen := map[string]bool{}
	var out []*schema.Field
	for _, line := range sec.NonBlank() {
		l, ok := ParseLabeled(line)
		if !ok || len([]rune(l.Label)) >= MaxLabelLength || seen[l.Label] {
			continue
		}
		if blanksOnly && l.Style != BlankUnderline {
			continue
		}
		name := FieldName(l.Label)
		if name == "" {
			continue
		}
		seen[l.Label] = true
		f := schema.NewField(in.Infer(l.Label, l.Value), name, l.Label)
		if l.Value != "" {
			f.WithDefault(l.Value)
		}
		schema.EnsureOptions(f)
		out = append(out, f)
	}
	return nodes(out...)
}
