package segment

import "strings"

// Section is a heading-delimited region of a document
type Section struct {
	Key   string
	Title string
	Lines []string
}

// Content joins the section's lines
func (s *Section) Content() string {
	return strings.Join(s.Lines, "\n")
}

// Blank reports whether every line is empty
func (s *Section) Blank() bool {
	for _, l := range s.Lines {
		if l != "" {
			return false
		}
	}
	return true
}

// NonBlank returns the lines that carry text
func (s *Section) NonBlank() []string {
	out := make([]string, 0, len(s.Lines))
	for _, l := range s.Lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Sections is an ordered key to Section mapping
type Sections struct {
	order []string
	byKey map[string]*Section
}

func newSections() *Sections {
	return &Sections{byKey: map[string]*Section{}}
}

func (s *Sections) ensure(key, title string) *Section {
	if sec, ok := s.byKey[key]; ok {
		return sec
	}
	sec := &Section{Key: key, Title: title}
	s.byKey[key] = sec
	s.order = append(s.order, key)
	return sec
}

// Keys returns section keys in output order
func (s *Sections) Keys() []string {
	return append([]string(nil), s.order...)
}

// Get returns the section for key
func (s *Sections) Get(key string) (*Section, bool) {
	sec, ok := s.byKey[key]
	return sec, ok
}

// All returns the sections in output order
func (s *Sections) All() []*Section {
	out := make([]*Section, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.byKey[k])
	}
	return out
}

// LineCount totals the lines held by every section
func (s *Sections) LineCount() int {
	n := 0
	for _, sec := range s.byKey {
		n += len(sec.Lines)
	}
	return n
}

// Options tune segmentation
type Options struct {
	// MinLines, when positive, ignores a heading match until the section
	// opened by the previous heading holds at least this many lines. Zero
	// switches on every match.
	MinLines int
}

// Lines splits text into the lines Segment assigns, trimmed of surrounding
// whitespace. Blank lines are kept.
func Lines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, len(raw))
	for i, l := range raw {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

// Segment assigns every line of text to exactly one section in a single
// pass: a line matching a heading rule switches the current section before
// it is appended, and no line is revisited.
func Segment(text string, c *Catalog, opts Options) *Sections {
	out := newSections()
	if c.precreate {
		out.ensure(c.defaultKey, c.defaultTitle)
		for _, r := range c.rules {
			out.ensure(r.Key, r.Title)
		}
	}

	current := out.ensure(c.defaultKey, c.defaultTitle)
	opened := false
	held := 0

	for _, line := range Lines(text) {
		if line != "" {
			if r, ok := c.Match(line); ok && r.Key != current.Key {
				if !opened || opts.MinLines <= 0 || held >= opts.MinLines {
					current = out.ensure(r.Key, c.Title(r.Key))
					opened = true
					held = 0
				}
			}
		}
		current.Lines = append(current.Lines, line)
		held++
	}
	return out
}
