package schema

import "strings"

// PlaceholderOptions fill a select field built without options
var PlaceholderOptions = []string{"Option 1", "Option 2", "Option 3"}

// NewSelect creates a select field. With no options it carries the
// placeholder list so the result always passes validation.
func NewSelect(name, label string, options ...string) *Field {
	if len(options) == 0 {
		options = PlaceholderOptions
	}
	return NewField(KindSelect, name, label).Set(PropOptions, JoinOptions(options))
}

// NewMultiSelect creates a select field allowing several answers
func NewMultiSelect(name, label string, options ...string) *Field {
	return NewSelect(name, label, options...).Set(PropMultiple, true)
}

// JoinOptions encodes an option list the way xfOptions stores it
func JoinOptions(options []string) string {
	return strings.Join(options, "\n")
}

// SplitOptions decodes xfOptions into its entries, dropping blanks
func SplitOptions(s string) []string {
	var out []string
	for _, o := range strings.Split(s, "\n") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// EnsureOptions gives a select field without options the placeholder list.
// Other kinds are left alone.
func EnsureOptions(f *Field) {
	if f.Kind != KindSelect {
		return
	}
	if len(SplitOptions(f.String(PropOptions))) == 0 {
		f.Set(PropOptions, JoinOptions(PlaceholderOptions))
	}
}
