package classify

import (
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/document"
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// AcroFields maps interactive PDF fields onto schema fields. Push buttons
// carry no answer and are skipped.
func AcroFields(fields []document.AcroField) []schema.Node {
	var out []*schema.Field
	for _, af := range fields {
		if f := acroField(af); f != nil {
			out = append(out, f)
		}
	}
	return nodes(out...)
}

func acroField(af document.AcroField) *schema.Field {
	name := FieldName(strings.ReplaceAll(af.Name, ".", " "))
	if name == "" {
		return nil
	}
	label := strings.TrimSpace(af.Label)
	if label == "" {
		label = acroLabel(af.Name)
	}

	var f *schema.Field
	switch af.Type {
	case document.AcroButton:
		return nil
	case document.AcroCheckbox:
		f = schema.NewField(schema.KindBoolean, name, label)
	case document.AcroRadio, document.AcroChoice:
		f = schema.NewSelect(name, label, af.Options...)
	case document.AcroSignature:
		f = schema.NewField(schema.KindSignature, name, label)
	default:
		f = schema.NewField(InferKind(label, af.Value), name, label)
		schema.EnsureOptions(f)
	}
	if af.Value != "" && af.Type != document.AcroCheckbox {
		f.WithDefault(af.Value)
	}
	if af.Required {
		f.Required()
	}
	return f
}

// acroLabel derives a display label from the last part of a qualified
// field name: "page1.site_name" becomes "Site Name"
func acroLabel(qualified string) string {
	last := qualified
	if i := strings.LastIndex(qualified, "."); i >= 0 {
		last = qualified[i+1:]
	}
	label := segment.TitleCase(strings.ReplaceAll(last, "-", "_"))
	if label == "" {
		return qualified
	}
	return label
}
