package classify

import (
	"regexp"
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// InspectionTypes are the inspection kinds offered on the report header
var InspectionTypes = []string{
	"Weekly",
	"Monthly (QSP/QSD)",
	"Pre-Qualifying Precipitation Event (QSP/QSD)",
	"During Qualifying Precipitation Event",
	"Post-Qualifying Precipitation Event",
	"Inactive Monthly (QSP/QSD)",
	"Final Inspection (QSP/QSD)",
	"Other (QSD/QSP) COI",
	"Other (QSD/QSP) - NAL Exceedance (w/in 14 days)",
	"Other (QSD/QSP) - As Requested by WB",
}

// QSDInspectionTypes are the QSD site-visit kinds
var QSDInspectionTypes = []string{
	"QSD Initial Inspection",
	"QSD Semi-Annual",
	"QSD Replacement (QSD)",
}

var constructionStages = []string{
	"Grading and Land Development",
	"Vertical Construction",
	"Inactive Construction Site",
	"Streets and Utilities",
	"Final Landscaping and Site Stabilization",
	"Demolition",
	"Other",
}

var dischargeTypes = []string{
	"Potable Water",
	"Irrigation Drainage",
	"Air Conditioning Condensate",
	"Springs",
	"Uncontaminated Ground Water",
	"Other",
}

var (
	headerDateRe     = regexp.MustCompile(`Date.*?:\s*([0-9/]+)`)
	headerTimeRe     = regexp.MustCompile(`(?i)Time.*?:\s*([0-9:]+\s*[AP]M)`)
	siteNameRe       = regexp.MustCompile(`Site Name.*?:\s*([^\n]+)`)
	wdidRe           = regexp.MustCompile(`WDID.*?:\s*([^\n]+)`)
	stormBeginRe     = regexp.MustCompile(`Storm Beginning.*?:\s*([^\n]+)`)
	stormDurationRe  = regexp.MustCompile(`Storm Duration.*?:\s*([^\n]+)`)
	rainGaugeRe      = regexp.MustCompile(`Rain gauge.*?:\s*([^\n]+)`)
	inspectorNameRe  = regexp.MustCompile(`Inspector Name.*?:\s*([^\n]+)`)
	inspectorTitleRe = regexp.MustCompile(`Inspector Title.*?:\s*([^\n]+)`)
)

// capture returns the trimmed first group of re in content
func capture(re *regexp.Regexp, content string) (string, bool) {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func enhancedHeader(sec *segment.Section) []schema.Node {
	content := sec.Content()
	var out []*schema.Field
	if v, ok := capture(headerDateRe, content); ok {
		out = append(out, schema.NewField(schema.KindDate, "inspection_date", "Inspection Date").
			WithDefault(v).Prepopulate(schema.PrepopulateDateToday))
	}
	if v, ok := capture(headerTimeRe, content); ok {
		out = append(out, schema.NewField(schema.KindTime, "inspection_time", "Inspection Time").
			WithDefault(v).Prepopulate(schema.PrepopulateTimeToday))
	}
	out = append(out,
		schema.NewMultiSelect("inspection_type", "Inspection Type", InspectionTypes...).
			Set(schema.PropOutputClass, []string{"checkboxes-stacked"}).
			Prepopulate(schema.PrepopulateSelectLast),
		schema.NewMultiSelect("qsd_inspection", "QSD on-site visual inspection", QSDInspectionTypes...).
			Prepopulate(schema.PrepopulateSelectLast),
	)
	return nodes(out...)
}

func enhancedGeneral(sec *segment.Section) []schema.Node {
	var out []*schema.Field
	if v, ok := capture(siteNameRe, sec.Content()); ok {
		out = append(out, schema.NewField(schema.KindString, "site_name", "Construction Site Name").
			WithDefault(v).Prepopulate(schema.PrepopulateLocationName))
	}
	out = append(out,
		schema.NewSelect("construction_stage", "Construction Stage", constructionStages...).
			Prepopulate(schema.PrepopulateSelectLast),
		schema.NewField(schema.KindText, "activities_completed", "General construction activities completed since the last inspection").
			Prepopulate(schema.PrepopulateLastReport),
		schema.NewField(schema.KindNumber, "exposed_area_percent", "Approximate Area of Site that is Exposed (%)"),
		schema.NewField(schema.KindBoolean, "photos_taken", "Photos Taken?").
			Prepopulate(schema.PrepopulateBooleanLast),
	)
	return nodes(out...)
}

func enhancedSite(sec *segment.Section) []schema.Node {
	out := []*schema.Field{
		schema.NewField(schema.KindText, "site_address", "Site Address").
			Prepopulate(schema.PrepopulateLocationAddress),
	}
	if v, ok := capture(wdidRe, sec.Content()); ok {
		out = append(out, wdidField().WithDefault(v))
	}
	return nodes(out...)
}

func wdidField() *schema.Field {
	return schema.NewField(schema.KindString, "wdid", "WDID#").
		Prepopulate(schema.PrepopulateProgramLocation).
		Set(schema.PropPrepopulateCustomValue, "regulatory_identifier")
}

func enhancedWeather(sec *segment.Section) []schema.Node {
	content := sec.Content()
	var out []*schema.Field
	if v, ok := capture(stormBeginRe, content); ok {
		out = append(out, schema.NewField(schema.KindDate, "storm_begin_date", "Estimate Storm Beginning").WithDefault(v))
	}
	if v, ok := capture(stormDurationRe, content); ok {
		out = append(out, schema.NewField(schema.KindTime, "storm_duration", "Estimate Storm Duration").WithDefault(v))
	}
	out = append(out, schema.NewField(schema.KindString, "time_since_last_storm", "Estimate time since last storm"))
	if v, ok := capture(rainGaugeRe, content); ok {
		out = append(out, schema.NewField(schema.KindString, "rain_gauge_reading", "Rain gauge reading and location").WithDefault(v))
	}
	out = append(out, conditionsFields(content)...)
	out = append(out,
		schema.NewField(schema.KindBoolean, "qualifying_precipitation", "Is a 'Qualifying Precipitation Event' predicted or did one occur?").
			Prepopulate(schema.PrepopulateBooleanLast),
		schema.NewField(schema.KindBoolean, "using_exemption", "Using Exemption?").
			Prepopulate(schema.PrepopulateBooleanLast),
		schema.NewField(schema.KindText, "exception_documentation", "Exception Documentation").
			When("using_exemption"),
	)
	return nodes(out...)
}

func enhancedInspector(sec *segment.Section) []schema.Node {
	content := sec.Content()
	var out []*schema.Field
	if v, ok := capture(inspectorNameRe, content); ok {
		out = append(out, schema.NewField(schema.KindString, "inspector_name", "Inspector Name").
			WithDefault(v).Prepopulate(schema.PrepopulateUserName))
	}
	if v, ok := capture(inspectorTitleRe, content); ok {
		out = append(out, schema.NewField(schema.KindString, "inspector_title", "Inspector Title").
			WithDefault(v).Prepopulate(schema.PrepopulateUserTitle))
	}
	out = append(out,
		schema.NewField(schema.KindString, "inspector_certification", "Inspector Certification"),
		schema.NewField(schema.KindDate, "inspector_date", "Date").Prepopulate(schema.PrepopulateDateToday),
		schema.NewField(schema.KindSignature, "inspector_signature", "Inspector Signature"),
	)
	return nodes(out...)
}

func enhancedNonStormwater(*segment.Section) []schema.Node {
	return nodes(
		schema.NewField(schema.KindBoolean, "non_stormwater_observed", "Were non-stormwater discharges observed?").
			Prepopulate(schema.PrepopulateBooleanLast),
		schema.NewMultiSelect("discharge_types", "Types of Non-Stormwater Discharges", dischargeTypes...).
			When("non_stormwater_observed"),
		schema.NewField(schema.KindText, "non_stormwater_description", "Description of Non-Stormwater Discharges").
			When("non_stormwater_observed"),
	)
}

func enhancedCorrective(*segment.Section) []schema.Node {
	group := schema.NewGroup("Corrective Actions",
		schema.NewField(schema.KindText, "corrective_action_description", "Description of Corrective Action"),
		schema.NewSelect("corrective_action_priority", "Priority", "High", "Medium", "Low"),
		schema.NewField(schema.KindDate, "corrective_action_due_date", "Due Date"),
		schema.NewField(schema.KindString, "responsible_party", "Responsible Party"),
		schema.NewField(schema.KindBoolean, "action_completed", "Action Completed?"),
		schema.NewField(schema.KindDate, "completion_date", "Completion Date").When("action_completed"),
	).When("corrective_actions_needed")

	return []schema.Node{
		schema.NewField(schema.KindBoolean, "corrective_actions_needed", "Are corrective actions needed?"),
		group,
	}
}
