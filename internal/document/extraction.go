package document

import "strings"

// Table is a grid of cell strings; the first row is the header candidate
type Table struct {
	Rows [][]string `json:"rows"`
}

// Header returns the first row, or nil for an empty table
func (t Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	return t.Rows[0]
}

// PageText is the text of one extraction unit: a PDF page, a sheet, or the
// body of a word-processor document
type PageText struct {
	Number int     `json:"number"`
	Label  string  `json:"label,omitempty"`
	Text   string  `json:"text"`
	Tables []Table `json:"tables,omitempty"`
}

// Heading is a paragraph whose style marks it as a heading
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// UnitError records a unit that failed to yield text
type UnitError struct {
	Unit string `json:"unit"`
	Err  string `json:"error"`
}

// AcroFieldType classifies interactive PDF form fields
type AcroFieldType string

// AcroForm field types
const (
	AcroText      AcroFieldType = "text"
	AcroCheckbox  AcroFieldType = "checkbox"
	AcroRadio     AcroFieldType = "radio"
	AcroButton    AcroFieldType = "button"
	AcroChoice    AcroFieldType = "choice"
	AcroSignature AcroFieldType = "signature"
	AcroUnknown   AcroFieldType = "unknown"
)

// AcroField is an interactive field declared in a PDF's AcroForm dictionary
type AcroField struct {
	Name     string        `json:"name"`
	Label    string        `json:"label,omitempty"`
	Type     AcroFieldType `json:"type"`
	Value    string        `json:"value,omitempty"`
	Options  []string      `json:"options,omitempty"`
	Required bool          `json:"required,omitempty"`
	ReadOnly bool          `json:"read_only,omitempty"`
}

// Extraction is everything the extractor pulled out of one document
type Extraction struct {
	Kind       Kind              `json:"kind"`
	Pages      []PageText        `json:"pages"`
	Headings   []Heading         `json:"headings,omitempty"`
	FormFields []AcroField       `json:"form_fields,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Errors     []UnitError       `json:"errors,omitempty"`
}

// Text joins every unit's text, one unit per block
func (x *Extraction) Text() string {
	parts := make([]string, 0, len(x.Pages))
	for _, p := range x.Pages {
		parts = append(parts, p.Text)
	}
	return strings.Join(parts, "\n")
}

// Tables returns every table across all units in order
func (x *Extraction) Tables() []Table {
	var out []Table
	for _, p := range x.Pages {
		out = append(out, p.Tables...)
	}
	return out
}

// Blank reports whether no unit produced any non-whitespace text
func (x *Extraction) Blank() bool {
	return strings.TrimSpace(x.Text()) == ""
}

// Degraded reports whether any unit failed
func (x *Extraction) Degraded() bool {
	return len(x.Errors) > 0
}

func (x *Extraction) addError(unit string, err error) {
	x.Errors = append(x.Errors, UnitError{Unit: unit, Err: err.Error()})
}

func (x *Extraction) setMeta(key, value string) {
	if x.Metadata == nil {
		x.Metadata = map[string]string{}
	}
	x.Metadata[key] = value
}
