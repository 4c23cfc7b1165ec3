package document

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Field flag bits from the AcroForm Ff entry
const (
	flagReadOnly   = 1 << 0
	flagRequired   = 1 << 1
	flagRadio      = 1 << 15
	flagPushbutton = 1 << 16
)

// maxFieldDepth bounds recursion through Kids and Parent chains
const maxFieldDepth = 16

// acroFields lists the terminal fields of the document's AcroForm
func acroFields(ctx *model.Context) ([]AcroField, error) {
	root, err := ctx.Catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog: %w", err)
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return nil, nil
	}
	form, err := ctx.DereferenceDict(obj)
	if err != nil || form == nil {
		return nil, err
	}
	fieldsObj, found := form.Find("Fields")
	if !found {
		return nil, nil
	}
	refs, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return nil, fmt.Errorf("failed to dereference Fields array: %w", err)
	}

	var out []AcroField
	for i, ref := range refs {
		out = collectField(ctx, ref, "", fmt.Sprintf("field_%d", i), 0, out)
	}
	return out, nil
}

// collectField walks a field and its kids, qualifying names with the parent
// name the way PDF viewers do
func collectField(ctx *model.Context, obj types.Object, parent, fallback string, depth int, out []AcroField) []AcroField {
	if depth > maxFieldDepth {
		return out
	}
	dict, err := ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return out
	}

	name := stringEntry(ctx, dict, "T")
	qualified := name
	if parent != "" && name != "" {
		qualified = parent + "." + name
	} else if name == "" {
		qualified = parent
	}

	if kidsObj, ok := dict.Find("Kids"); ok {
		if kids, err := ctx.DereferenceArray(kidsObj); err == nil {
			named := 0
			for i, kid := range kids {
				kd, err := ctx.DereferenceDict(kid)
				if err != nil || kd == nil {
					continue
				}
				if _, hasT := kd.Find("T"); hasT {
					named++
					out = collectField(ctx, kid, qualified, fmt.Sprintf("%s_%d", fallback, i), depth+1, out)
				}
			}
			if named > 0 {
				return out
			}
		}
	}

	if qualified == "" {
		qualified = fallback
	}
	flags := intEntry(ctx, dict, "Ff")
	field := AcroField{
		Name:     qualified,
		Label:    stringEntry(ctx, dict, "TU"),
		Type:     fieldType(ctx, dict, depth),
		Required: flags&flagRequired != 0,
		ReadOnly: flags&flagReadOnly != 0,
	}
	field.Value = valueEntry(ctx, dict, field.Type)
	if field.Type == AcroChoice || field.Type == AcroRadio {
		field.Options = options(ctx, dict)
	}
	return append(out, field)
}

// fieldType resolves FT, inheriting from the parent when absent
func fieldType(ctx *model.Context, dict types.Dict, depth int) AcroFieldType {
	ftObj, found := dict.Find("FT")
	if !found {
		if parentObj, ok := dict.Find("Parent"); ok && depth < maxFieldDepth {
			if parent, err := ctx.DereferenceDict(parentObj); err == nil && parent != nil {
				return fieldType(ctx, parent, depth+1)
			}
		}
		return AcroUnknown
	}
	ft, err := ctx.DereferenceName(ftObj, model.V10, nil)
	if err != nil {
		return AcroUnknown
	}
	switch ft {
	case "Btn":
		flags := intEntry(ctx, dict, "Ff")
		switch {
		case flags&flagRadio != 0:
			return AcroRadio
		case flags&flagPushbutton != 0:
			return AcroButton
		}
		return AcroCheckbox
	case "Tx":
		return AcroText
	case "Ch":
		return AcroChoice
	case "Sig":
		return AcroSignature
	}
	return AcroUnknown
}

func valueEntry(ctx *model.Context, dict types.Dict, t AcroFieldType) string {
	obj, found := dict.Find("V")
	if !found {
		return ""
	}
	switch t {
	case AcroCheckbox, AcroRadio:
		if name, err := ctx.DereferenceName(obj, model.V10, nil); err == nil && name != "Off" {
			return string(name)
		}
		return ""
	default:
		if s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
			return s
		}
	}
	return ""
}

// options reads Opt entries, preferring the display value of export/display pairs
func options(ctx *model.Context, dict types.Dict) []string {
	obj, found := dict.Find("Opt")
	if !found {
		return nil
	}
	arr, err := ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	var out []string
	for _, opt := range arr {
		if s, err := ctx.DereferenceStringOrHexLiteral(opt, model.V10, nil); err == nil {
			out = append(out, s)
		} else if pair, err := ctx.DereferenceArray(opt); err == nil && len(pair) >= 2 {
			if s, err := ctx.DereferenceStringOrHexLiteral(pair[1], model.V10, nil); err == nil {
				out = append(out, s)
			}
		}
	}
	return out
}

func stringEntry(ctx *model.Context, dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

func intEntry(ctx *model.Context, dict types.Dict, key string) int {
	obj, found := dict.Find(key)
	if !found {
		return 0
	}
	n, err := ctx.DereferenceInteger(obj)
	if err != nil || n == nil {
		return 0
	}
	return n.Value()
}
