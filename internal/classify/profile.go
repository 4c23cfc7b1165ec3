package classify

import (
	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// SectionFunc turns the lines of one section into page children
type SectionFunc func(sec *segment.Section) []schema.Node

// Profile pairs a segmentation catalog with the field extractors for the
// sections it produces. Sections without an extractor go to the fallback.
type Profile struct {
	name     string
	catalog  *segment.Catalog
	sections map[string]SectionFunc
	fallback SectionFunc
}

// NewProfile creates a profile. A nil fallback uses Generic.
func NewProfile(name string, catalog *segment.Catalog, sections map[string]SectionFunc, fallback SectionFunc) *Profile {
	if fallback == nil {
		fallback = Generic
	}
	copied := make(map[string]SectionFunc, len(sections))
	for k, fn := range sections {
		copied[k] = fn
	}
	return &Profile{name: name, catalog: catalog, sections: copied, fallback: fallback}
}

// Name returns the profile name
func (p *Profile) Name() string { return p.name }

// Catalog returns the segmentation catalog
func (p *Profile) Catalog() *segment.Catalog { return p.catalog }

// WithCatalog returns a copy of the profile segmenting with c. Section keys
// of c that match a known extractor keep it; the rest use the fallback.
func (p *Profile) WithCatalog(c *segment.Catalog) *Profile {
	return NewProfile(p.name, c, p.sections, p.fallback)
}

// Classify extracts the fields of one section. Blank sections yield nothing.
func (p *Profile) Classify(sec *segment.Section) []schema.Node {
	if sec == nil || sec.Blank() {
		return nil
	}
	if fn, ok := p.sections[sec.Key]; ok {
		return fn(sec)
	}
	return p.fallback(sec)
}

// Enhanced is the detailed inspection-report profile
func Enhanced() *Profile {
	checklist := SectionFunc(ChecklistItems)
	return NewProfile("enhanced", segment.EnhancedCatalog(), map[string]SectionFunc{
		"header":             enhancedHeader,
		"general_info":       enhancedGeneral,
		"site_info":          enhancedSite,
		"weather":            enhancedWeather,
		"inspector":          enhancedInspector,
		"bmps":               checklist,
		"erosion_control":    checklist,
		"sediment_control":   checklist,
		"good_housekeeping":  checklist,
		"non_stormwater":     enhancedNonStormwater,
		"corrective_actions": enhancedCorrective,
	}, Generic)
}

// Basic is the coarse keyword profile used when the enhanced one finds nothing
func Basic() *Profile {
	return NewProfile("basic", segment.BasicCatalog(), map[string]SectionFunc{
		"general_info":       basicGeneral,
		"weather_info":       basicWeather,
		"weather":            basicWeather,
		"site_details":       basicSite,
		"inspector_info":     basicInspector,
		"bmp_inspection":     catalogChecklist(nil),
		"erosion_control":    catalogChecklist(erosionItems),
		"sediment_control":   catalogChecklist(sedimentItems),
		"housekeeping":       catalogChecklist(housekeepingItems),
		"corrective_actions": basicCorrective,
	}, BlankFields)
}

func nodes(fields ...*schema.Field) []schema.Node {
	out := make([]schema.Node, 0, len(fields))
	for _, f := range fields {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}
