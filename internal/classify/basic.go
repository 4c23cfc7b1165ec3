package classify

import (
	"regexp"

	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// FallbackInspectionTypes are offered when a section mentions inspection
// types without any checkbox options
var FallbackInspectionTypes = []string{
	"Weekly",
	"Monthly",
	"Pre-Storm Event",
	"During Storm Event",
	"Post-Storm Event",
	"Inactive Monthly",
	"Final Inspection",
	"Other",
}

var (
	anyDateRe      = regexp.MustCompile(`(?i)date`)
	anyTimeRe      = regexp.MustCompile(`(?i)time`)
	anyWDIDRe      = regexp.MustCompile(`WDID|wdid`)
	anyQSDRe       = regexp.MustCompile(`QSD|qsd`)
	temperatureRe  = regexp.MustCompile(`(?i)temperature|temp`)
	precipRe       = regexp.MustCompile(`(?i)precipitation|rainfall`)
	stageRe        = regexp.MustCompile(`(?i)stage|phase`)
	disturbedRe    = regexp.MustCompile(`(?i)disturbed.*area|acres`)
	weatherOptions = []string{"Clear", "Cloudy", "Rainy", "Snowy", "Windy"}
)

func basicGeneral(sec *segment.Section) []schema.Node {
	content := sec.Content()
	var out []*schema.Field
	if anyDateRe.MatchString(content) {
		out = append(out, schema.NewField(schema.KindDate, "inspection_date", "Inspection Date").
			Prepopulate(schema.PrepopulateDateToday))
	}
	if anyTimeRe.MatchString(content) {
		out = append(out, schema.NewField(schema.KindTime, "inspection_time", "Inspection Time").
			Prepopulate(schema.PrepopulateTimeToday))
	}
	if anyWDIDRe.MatchString(content) {
		out = append(out, wdidField())
	}

	options := GlyphOptions(content)
	if len(options) == 0 {
		options = FallbackInspectionTypes
	}
	out = append(out, schema.NewMultiSelect("inspection_type", "Inspection Type", options...).
		Prepopulate(schema.PrepopulateSelectLast))

	if anyQSDRe.MatchString(content) {
		out = append(out, schema.NewMultiSelect("qsd", "QSD on-site visual inspection", QSDInspectionTypes...).
			Prepopulate(schema.PrepopulateSelectLast))
	}
	return nodes(out...)
}

// conditionsFields emits temperature and precipitation fields for the
// keywords found in content
func conditionsFields(content string) []*schema.Field {
	var out []*schema.Field
	if temperatureRe.MatchString(content) {
		out = append(out, schema.NewField(schema.KindNumber, "temperature", "Temperature (°F)"))
	}
	if precipRe.MatchString(content) {
		out = append(out,
			schema.NewField(schema.KindBoolean, "precipitation_24hr", "Precipitation in last 24 hours?"),
			schema.NewField(schema.KindNumber, "precipitation_amount", "Precipitation Amount (inches)").
				When("precipitation_24hr"),
		)
	}
	return out
}

func basicWeather(sec *segment.Section) []schema.Node {
	out := []*schema.Field{
		schema.NewSelect("weather_condition", "Weather Condition", weatherOptions...).
			Prepopulate(schema.PrepopulateSelectLast),
	}
	out = append(out, conditionsFields(sec.Content())...)
	return nodes(out...)
}

func basicSite(sec *segment.Section) []schema.Node {
	content := sec.Content()
	out := []*schema.Field{
		schema.NewField(schema.KindString, "project_name", "Project Name").
			Prepopulate(schema.PrepopulateLocationName),
		schema.NewField(schema.KindText, "site_address", "Site Address").
			Prepopulate(schema.PrepopulateLocationAddress),
	}
	if stageRe.MatchString(content) {
		out = append(out, schema.NewSelect("construction_stage", "Construction Stage",
			"Pre-Construction", "Clearing and Grading", "Utilities Installation", "Vertical Construction", "Final Stabilization").
			Prepopulate(schema.PrepopulateSelectLast))
	}
	if disturbedRe.MatchString(content) {
		out = append(out, schema.NewField(schema.KindNumber, "disturbed_area", "Disturbed Area (acres)"))
	}
	return nodes(out...)
}

func basicInspector(*segment.Section) []schema.Node {
	return nodes(
		schema.NewField(schema.KindString, "inspector_name", "Inspector Name").Prepopulate(schema.PrepopulateUserName),
		schema.NewField(schema.KindString, "inspector_title", "Inspector Title").Prepopulate(schema.PrepopulateUserTitle),
		schema.NewField(schema.KindString, "inspector_phone", "Inspector Phone").Prepopulate(schema.PrepopulateUserPhone),
		schema.NewField(schema.KindSignature, "inspector_signature", "Inspector Signature"),
	)
}

func basicCorrective(*segment.Section) []schema.Node {
	const gate = "corrective_actions_needed"
	return nodes(
		schema.NewField(schema.KindBoolean, gate, "Corrective Actions Needed?"),
		schema.NewField(schema.KindText, "corrective_action_description", "Description of Corrective Actions").When(gate),
		schema.NewField(schema.KindDate, "corrective_action_due_date", "Due Date").When(gate),
		schema.NewField(schema.KindString, "responsible_party", "Responsible Party").When(gate),
	)
}
