package segment

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const report = `Construction Site Report
Date of Inspection: 03/14/2024

General Information
Site Name: Riverside Grading
Weather Information
Temperature: 61
Precipitation: none
Inspector Name: J. Doe
Erosion Control
1. Slope protection in place
Corrective Actions
Notes`

func TestSegmentEnhancedAssignsAsItGoes(t *testing.T) {
	secs := Segment(report, EnhancedCatalog(), Options{})

	assert.Equal(t, []string{
		"header", "general_info", "site_info", "weather", "inspector", "bmps",
		"erosion_control", "sediment_control", "good_housekeeping",
		"non_stormwater", "corrective_actions", "notes",
	}, secs.Keys())

	header, _ := secs.Get("header")
	assert.Equal(t, []string{"Construction Site Report", "Date of Inspection: 03/14/2024", ""}, header.Lines)

	weather, _ := secs.Get("weather")
	assert.Equal(t, []string{"Weather Information", "Temperature: 61", "Precipitation: none"}, weather.Lines)

	// "Inspector Name" is a body line but matches the inspector heading.
	inspector, _ := secs.Get("inspector")
	assert.Equal(t, []string{"Inspector Name: J. Doe"}, inspector.Lines)

	bmps, _ := secs.Get("bmps")
	assert.Empty(t, bmps.Lines)
	assert.True(t, bmps.Blank())
	assert.Equal(t, "BMP Inspection", bmps.Title)
}

func TestSegmentBasicUsesEncounterOrder(t *testing.T) {
	secs := Segment(report, BasicCatalog(), Options{})
	assert.Equal(t, []string{"general_info", "weather_info", "erosion_control", "corrective_actions"}, secs.Keys())

	general, _ := secs.Get("general_info")
	assert.Equal(t, "General Information", general.Title)
	assert.Equal(t, []string{"Construction Site Report", "Date of Inspection: 03/14/2024", "", "General Information", "Site Name: Riverside Grading"}, general.Lines)
}

func TestSegmentKeepsEveryLine(t *testing.T) {
	inputs := []string{
		"",
		"\n\n\n",
		report,
		strings.Repeat("weather\nnotes\nrandom line\n", 20),
		"Corrective action\r\nInspector Information\r\n  indented  ",
	}
	for _, catalog := range []*Catalog{EnhancedCatalog(), BasicCatalog()} {
		for _, in := range inputs {
			for _, minLines := range []int{0, 1, 3} {
				secs := Segment(in, catalog, Options{MinLines: minLines})
				assert.Equal(t, len(Lines(in)), secs.LineCount(), "catalog=%s min=%d", catalog.Name(), minLines)

				var joined []string
				for _, s := range secs.All() {
					joined = append(joined, s.Lines...)
				}
				assert.ElementsMatch(t, Lines(in), joined)
			}
		}
	}
}

func TestSegmentMinLinesDampensOscillation(t *testing.T) {
	text := "Weather\nWeather conditions: clear\nNotes on site\nInspector"

	plain := Segment(text, EnhancedCatalog(), Options{})
	notes, _ := plain.Get("notes")
	assert.Equal(t, []string{"Notes on site"}, notes.Lines)

	damped := Segment(text, EnhancedCatalog(), Options{MinLines: 3})
	weather, _ := damped.Get("weather")
	assert.Equal(t, []string{"Weather", "Weather conditions: clear", "Notes on site"}, weather.Lines)
	inspector, _ := damped.Get("inspector")
	assert.Equal(t, []string{"Inspector"}, inspector.Lines)
}

func TestSegmentFirstMatchWins(t *testing.T) {
	secs := Segment("Notes on weather", EnhancedCatalog(), Options{})
	weather, _ := secs.Get("weather")
	assert.Equal(t, []string{"Notes on weather"}, weather.Lines)
	notes, _ := secs.Get("notes")
	assert.Empty(t, notes.Lines)
}

func TestLoadCatalog(t *testing.T) {
	yml := `
name: small
default:
  key: intro
  title: Introduction
sections:
  - key: checks
    title: Checks
    pattern: "check(list)?"
`
	c, err := LoadCatalog(strings.NewReader(yml))
	require.NoError(t, err)
	assert.Equal(t, "small", c.Name())
	assert.Equal(t, "intro", c.DefaultKey())
	assert.Equal(t, "Introduction", c.Title("intro"))

	secs := Segment("Hello\nCHECKLIST\nitem", c, Options{})
	assert.Equal(t, []string{"intro", "checks"}, secs.Keys())
	checks, _ := secs.Get("checks")
	assert.Equal(t, "Checks", checks.Title)
}

func TestLoadCatalogErrors(t *testing.T) {
	tests := map[string]string{
		"no default":    "sections:\n  - key: a\n    pattern: a\n",
		"bad pattern":   "default:\n  key: x\nsections:\n  - key: a\n    pattern: \"(\"\n",
		"missing key":   "default:\n  key: x\nsections:\n  - pattern: a\n",
		"unknown field": "default:\n  key: x\nextra: true\n",
	}
	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(yml))
			assert.Error(t, err)
		})
	}
}

func TestTitleCase(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"site_details", "Site Details"},
		{"bmps", "Bmps"},
		{"", ""},
		{"émissions_log", "Émissions Log"},
		{"über_prüfung", "Über Prüfung"},
		{"日本_site", "日本 Site"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got := TitleCase(tt.key)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}
