package classify

import (
	"strings"

	"github.com/a3tai/pdf-form-schema/internal/schema"
	"github.com/a3tai/pdf-form-schema/internal/segment"
)

// SmallCatalog is the size at or below which every catalog item is emitted
// whether or not the section mentions it
const SmallCatalog = 5

// CheckItem is one entry of a fixed BMP checklist
type CheckItem struct {
	Label string
	Name  string
}

var (
	erosionItems = []CheckItem{
		{"Slope Protection", "slope_protection"},
		{"Fiber Rolls", "fiber_rolls"},
		{"Silt Fence", "silt_fence"},
		{"Erosion Control Blankets", "erosion_blankets"},
		{"Hydroseeding", "hydroseeding"},
	}
	sedimentItems = []CheckItem{
		{"Sediment Basin", "sediment_basin"},
		{"Sediment Trap", "sediment_trap"},
		{"Storm Drain Inlet Protection", "inlet_protection"},
		{"Track-out Control", "track_out_control"},
		{"Stabilized Construction Entrance", "construction_entrance"},
	}
	housekeepingItems = []CheckItem{
		{"Material Storage", "material_storage"},
		{"Waste Management", "waste_management"},
		{"Spill Prevention", "spill_prevention"},
		{"Equipment Maintenance", "equipment_maintenance"},
	}
)

// ChecklistPair returns a ternary item and the comments field shown when
// the item is answered no
func ChecklistPair(name, label, commentsSuffix string) []*schema.Field {
	return []*schema.Field{
		schema.NewField(schema.KindTernary, name, label).
			Prepopulate(schema.PrepopulateTernaryLast),
		schema.NewField(schema.KindText, name+"_comments", label+commentsSuffix).
			WhenFalse(name),
	}
}

// ChecklistItems reads numbered items ("3. Silt fence maintained") as
// ternary questions and checkbox lines as yes/no questions
func ChecklistItems(sec *segment.Section) []schema.Node {
	var out []*schema.Field
	for _, line := range sec.NonBlank() {
		if item, ok := NumberedItem(line); ok {
			out = append(out, ChecklistPair(FieldName(item), item, " - Comments/Corrective Actions")...)
			continue
		}
		if item, ok := CheckboxItem(line); ok && len([]rune(item)) > 3 {
			out = append(out, schema.NewField(schema.KindBoolean, FieldName(item), item).
				Prepopulate(schema.PrepopulateBooleanLast))
		}
	}
	return nodes(out...)
}

// catalogChecklist emits each catalog item the section mentions, or every
// item when the catalog is small
func catalogChecklist(items []CheckItem) SectionFunc {
	return func(sec *segment.Section) []schema.Node {
		content := strings.ToLower(sec.Content())
		var out []*schema.Field
		for _, it := range items {
			if len(items) <= SmallCatalog || strings.Contains(content, strings.ToLower(it.Label)) {
				out = append(out, ChecklistPair(it.Name, it.Label, " - Comments")...)
			}
		}
		return nodes(out...)
	}
}
