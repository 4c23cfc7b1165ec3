package classify

import (
	"regexp"
	"strings"
)

// BlankStyle describes how a labeled line leaves room for an answer
type BlankStyle int

// Blank styles
const (
	BlankNone      BlankStyle = iota // "Label: some value"
	BlankUnderline                   // "Label: ______"
	BlankBracket                     // "Label: [ ... ]"
	BlankParen                       // "Label: ( ... )"
)

// LabeledLine is a "LABEL: rest" line split into its parts
type LabeledLine struct {
	Label string
	Value string
	Style BlankStyle
}

// IsBlank reports whether the line is a fill-in blank rather than a plain
// label and value
func (l LabeledLine) IsBlank() bool {
	return l.Style != BlankNone
}

var (
	labeledRe = regexp.MustCompile(`^\s*([^:]+?):\s*(.*)$`)
	bracketRe = regexp.MustCompile(`^\[(.*)\]$`)
	parenRe   = regexp.MustCompile(`^\((.*)\)$`)
)

// ParseLabeled splits a line at its first colon. Text already inside a
// bracket or parenthesis blank becomes the value.
func ParseLabeled(line string) (LabeledLine, bool) {
	m := labeledRe.FindStringSubmatch(line)
	if m == nil {
		return LabeledLine{}, false
	}
	label := strings.TrimSpace(m[1])
	if label == "" {
		return LabeledLine{}, false
	}
	rest := strings.TrimSpace(m[2])

	switch {
	case isFiller(rest):
		return LabeledLine{Label: label, Style: BlankUnderline}, true
	case bracketRe.MatchString(rest):
		return LabeledLine{Label: label, Value: fill(bracketRe.FindStringSubmatch(rest)[1]), Style: BlankBracket}, true
	case parenRe.MatchString(rest):
		return LabeledLine{Label: label, Value: fill(parenRe.FindStringSubmatch(rest)[1]), Style: BlankParen}, true
	}
	return LabeledLine{Label: label, Value: rest}, true
}

// isFiller reports whether s holds nothing but blank-line filler
func isFiller(s string) bool {
	for _, r := range s {
		switch r {
		case '_', ' ', '\t', '/', '-', '.':
		default:
			return false
		}
	}
	return true
}

func fill(inner string) string {
	inner = strings.TrimSpace(inner)
	if isFiller(inner) {
		return ""
	}
	return inner
}

const checkGlyphs = "☐☑✓✗□■×"

var (
	numberedRe = regexp.MustCompile(`^\d+\.\s+(.+?)(?:\s*[` + checkGlyphs + `]|$)`)
	checkboxRe = regexp.MustCompile(`^(?:[` + checkGlyphs + `]|X\s)\s*([^\n` + checkGlyphs + `]+)`)
	glyphRunRe = regexp.MustCompile(`[☐☑✓✗□■]\s*([^\n☐☑✓✗□■]+)`)
)

// NumberedItem returns the text of a "12. Item text" checklist line
func NumberedItem(line string) (string, bool) {
	m := numberedRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// CheckboxItem returns the label following a leading checkbox glyph
func CheckboxItem(line string) (string, bool) {
	m := checkboxRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// GlyphOptions collects every label that follows a checkbox glyph in
// content, dropping labels of two characters or fewer
func GlyphOptions(content string) []string {
	var out []string
	for _, m := range glyphRunRe.FindAllStringSubmatch(content, -1) {
		if opt := strings.TrimSpace(m[1]); len([]rune(opt)) > 2 {
			out = append(out, opt)
		}
	}
	return out
}
