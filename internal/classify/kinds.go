package classify

import (
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// LongTextThreshold is the default length beyond which a string field
// becomes long text
const LongTextThreshold = 50

// KindRule maps label keywords to a field kind. A label matches when it
// contains any Keyword or ends with any Suffix. Matching is case-insensitive
// and plain substring: "Site Notes" contains "no".
type KindRule struct {
	Name     string
	Kind     schema.Kind
	Keywords []string
	Suffixes []string
}

func (r KindRule) matches(lower string) bool {
	for _, k := range r.Keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	for _, s := range r.Suffixes {
		if strings.HasSuffix(lower, s) {
			return true
		}
	}
	return false
}

// DefaultKindRules returns the ordered keyword buckets; the first match wins
func DefaultKindRules() []KindRule {
	return []KindRule{
		{Name: "date", Kind: schema.KindDate, Keywords: []string{"date", "when"}},
		{Name: "time", Kind: schema.KindTime, Keywords: []string{"time", "duration"}},
		{Name: "yes_no", Kind: schema.KindBoolean, Keywords: []string{"yes", "no"}, Suffixes: []string{"?"}},
		{Name: "choice", Kind: schema.KindSelect, Keywords: []string{"select", "choose", "type"}},
		{Name: "long_text", Kind: schema.KindText, Keywords: []string{"description", "comments", "notes", "explain"}},
		{Name: "number", Kind: schema.KindNumber, Keywords: []string{"number", "count", "amount", "percent", "%"}},
		{Name: "email", Kind: schema.KindString, Keywords: []string{"email"}},
		{Name: "signature", Kind: schema.KindSignature, Keywords: []string{"signature", "sign"}},
	}
}

// BasicKindRules is the reduced bucket set used for blank-line fields in the
// fallback parser
func BasicKindRules() []KindRule {
	return []KindRule{
		{Name: "date", Kind: schema.KindDate, Keywords: []string{"date", "when"}},
		{Name: "time", Kind: schema.KindTime, Keywords: []string{"time"}},
		{Name: "yes_no", Kind: schema.KindBoolean, Keywords: []string{"yes", "no"}},
		{Name: "long_text", Kind: schema.KindText, Keywords: []string{"description", "notes", "comments"}},
	}
}

// Inferrer decides a field kind from its label and any known value
type Inferrer struct {
	rules     []KindRule
	threshold int
}

// NewInferrer creates an inferrer over rules. A nil slice uses the defaults.
func NewInferrer(rules []KindRule) *Inferrer {
	if rules == nil {
		rules = DefaultKindRules()
	}
	return &Inferrer{rules: append([]KindRule(nil), rules...), threshold: LongTextThreshold}
}

// Infer returns the kind of the first matching bucket. Unmatched labels are
// short text, or long text when value is longer than the threshold.
func (in *Inferrer) Infer(label, value string) schema.Kind {
	lower := strings.ToLower(strings.TrimSpace(label))
	for _, r := range in.rules {
		if r.matches(lower) {
			return r.Kind
		}
	}
	if len(value) > in.threshold {
		return schema.KindText
	}
	return schema.KindString
}

var defaultInferrer = NewInferrer(nil)

// InferKind applies the default buckets
func InferKind(label, value string) schema.Kind {
	return defaultInferrer.Infer(label, value)
}
