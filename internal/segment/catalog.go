package segment

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Rule maps a heading pattern to the section it opens. Pattern is a regular
// expression matched case-insensitively anywhere in the line.
type Rule struct {
	Key     string `yaml:"key"`
	Title   string `yaml:"title"`
	Pattern string `yaml:"pattern"`
}

type compiledRule struct {
	Rule
	re *regexp.Regexp
}

// Catalog is an ordered, immutable list of heading rules. Rules are tried in
// order and the first match wins, so specific patterns must precede general
// ones.
type Catalog struct {
	name         string
	defaultKey   string
	defaultTitle string
	precreate    bool
	rules        []compiledRule
}

// Spec is the serializable form of a Catalog
type Spec struct {
	Name    string `yaml:"name"`
	Default struct {
		Key   string `yaml:"key"`
		Title string `yaml:"title"`
	} `yaml:"default"`
	// Precreate seeds every section in catalog order before scanning,
	// so output order follows the catalog rather than the document.
	Precreate bool   `yaml:"precreate"`
	Sections  []Rule `yaml:"sections"`
}

// NewCatalog compiles a spec into a catalog
func NewCatalog(spec Spec) (*Catalog, error) {
	if spec.Default.Key == "" {
		return nil, errors.New("catalog needs a default section key")
	}
	c := &Catalog{
		name:         spec.Name,
		defaultKey:   spec.Default.Key,
		defaultTitle: spec.Default.Title,
		precreate:    spec.Precreate,
	}
	for i, r := range spec.Sections {
		if r.Key == "" || r.Pattern == "" {
			return nil, fmt.Errorf("rule %d: key and pattern are required", i)
		}
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, r.Key, err)
		}
		c.rules = append(c.rules, compiledRule{Rule: r, re: re})
	}
	return c, nil
}

func mustCatalog(spec Spec) *Catalog {
	c, err := NewCatalog(spec)
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog reads a YAML catalog definition
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var spec Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}
	return NewCatalog(spec)
}

// Name identifies the catalog in logs
func (c *Catalog) Name() string { return c.name }

// DefaultKey is the section that absorbs lines before the first heading
func (c *Catalog) DefaultKey() string { return c.defaultKey }

// Rules returns a copy of the rules in priority order
func (c *Catalog) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Rule
	}
	return out
}

// Match returns the first rule whose pattern occurs in line
func (c *Catalog) Match(line string) (Rule, bool) {
	for _, r := range c.rules {
		if r.re.MatchString(line) {
			return r.Rule, true
		}
	}
	return Rule{}, false
}

// Title returns the display title for key, or "" if the catalog has none
func (c *Catalog) Title(key string) string {
	if key == c.defaultKey {
		return c.defaultTitle
	}
	for _, r := range c.rules {
		if r.Key == key && r.Title != "" {
			return r.Title
		}
	}
	return ""
}

// TitleCase turns a section key into a display label: "site_details" becomes
// "Site Details"
func TitleCase(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// EnhancedCatalog covers the full inspection report layout. Lines before
// the first heading land in the report header.
func EnhancedCatalog() *Catalog {
	spec := Spec{
		Name:      "enhanced",
		Precreate: true,
		Sections: []Rule{
			{Key: "general_info", Title: "General Information", Pattern: `general information`},
			{Key: "site_info", Title: "Site Information", Pattern: `site information`},
			{Key: "weather", Title: "Weather Information", Pattern: `weather`},
			{Key: "inspector", Title: "Inspector Information", Pattern: `inspector`},
			{Key: "bmps", Title: "BMP Inspection", Pattern: `bmp.*inspection|inspection.*bmp`},
			{Key: "erosion_control", Title: "Erosion Control", Pattern: `erosion`},
			{Key: "sediment_control", Title: "Sediment Control", Pattern: `sediment`},
			{Key: "good_housekeeping", Title: "Good Housekeeping", Pattern: `housekeeping`},
			{Key: "non_stormwater", Title: "Non-Stormwater Management", Pattern: `non-stormwater|non stormwater`},
			{Key: "corrective_actions", Title: "Corrective Actions", Pattern: `corrective`},
			{Key: "notes", Title: "Notes and Comments", Pattern: `notes|comments`},
		},
	}
	spec.Default.Key = "header"
	spec.Default.Title = "Inspection Header"
	return mustCatalog(spec)
}

// BasicCatalog is the reduced heading set used by the fallback parser.
// Sections appear in the order they are first encountered.
func BasicCatalog() *Catalog {
	spec := Spec{
		Name: "basic",
		Sections: []Rule{
			{Key: "general_info", Title: "General Information", Pattern: `general information`},
			{Key: "weather_info", Title: "Weather Information", Pattern: `weather.*information`},
			{Key: "site_details", Title: "Site Details", Pattern: `site.*information|site.*details`},
			{Key: "bmp_inspection", Title: "BMP Inspection", Pattern: `bmp.*inspection|inspection.*checklist`},
			{Key: "erosion_control", Title: "Erosion Control", Pattern: `erosion.*control`},
			{Key: "sediment_control", Title: "Sediment Control", Pattern: `sediment.*control`},
			{Key: "housekeeping", Title: "Good Housekeeping", Pattern: `good.*housekeeping`},
			{Key: "non_stormwater", Title: "Non-Stormwater Discharges", Pattern: `non.*stormwater`},
			{Key: "corrective_actions", Title: "Corrective Actions", Pattern: `corrective.*action`},
			{Key: "inspector_info", Title: "Inspector Information", Pattern: `inspector.*information`},
		},
	}
	spec.Default.Key = "general_info"
	spec.Default.Title = "General Information"
	return mustCatalog(spec)
}
