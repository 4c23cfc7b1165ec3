package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Result is the outcome of validating a schema
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Error joins the violations into one message
func (r Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

// Validate checks the typed form against the structural rules
func (f *Form) Validate() Result {
	return Validate(f.Tree())
}

// ValidateJSON decodes data and validates the resulting tree
func ValidateJSON(data []byte) Result {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{Errors: []string{fmt.Sprintf("Invalid JSON: %v", err)}}
	}
	return Validate(raw)
}

// Validate checks an arbitrary schema-shaped value. It never modifies its
// input and reports every violation it finds, except that a root without
// props or pages stops the check before any page is looked at.
func Validate(schema any) Result {
	if f, ok := schema.(*Form); ok {
		return f.Validate()
	}

	var errs []string
	root, ok := schema.(map[string]any)
	if !ok {
		return Result{Errors: []string{fmt.Sprintf("Schema must be an object, got %T", schema)}}
	}

	switch name, _ := root["name"].(string); {
	case !truthy(root["name"]):
		errs = append(errs, "Missing 'name' field in schema")
	case name != TagForm:
		errs = append(errs, fmt.Sprintf("Invalid root name: %v, expected '%s'", root["name"], TagForm))
	}

	props, _ := root["props"].(map[string]any)
	if len(props) == 0 {
		errs = append(errs, "Missing 'props' field in schema")
		return result(errs)
	}

	pages, _ := props[PropChildren].([]any)
	if len(pages) == 0 {
		errs = append(errs, "Form must have at least one page")
		return result(errs)
	}

	seen := make(map[string]int, len(pages))
	for i, page := range pages {
		errs = append(errs, validatePage(page, i, seen)...)
	}
	return result(errs)
}

func result(errs []string) Result {
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func validatePage(raw any, i int, seen map[string]int) []string {
	var errs []string
	page, _ := raw.(map[string]any)

	switch name, _ := page["name"].(string); {
	case !truthy(page["name"]):
		errs = append(errs, fmt.Sprintf("Page %d: Missing 'name' field", i))
	case name != TagPage:
		errs = append(errs, fmt.Sprintf("Page %d: Invalid name '%v', expected '%s'", i, page["name"], TagPage))
	}

	props, _ := page["props"].(map[string]any)
	if len(props) == 0 {
		return append(errs, fmt.Sprintf("Page %d: Missing 'props' field", i))
	}

	if !truthy(props[PropName]) {
		errs = append(errs, fmt.Sprintf("Page %d: Missing 'xfName' property", i))
	} else if name, ok := props[PropName].(string); ok {
		if first, dup := seen[name]; dup {
			errs = append(errs, fmt.Sprintf("Page %d: Duplicate 'xfName' '%s' (first used by page %d)", i, name, first))
		} else {
			seen[name] = i
		}
	}
	if !truthy(props[PropLabel]) {
		errs = append(errs, fmt.Sprintf("Page %d: Missing 'xfLabel' property", i))
	}

	children, _ := props[PropChildren].([]any)
	for j, child := range children {
		errs = append(errs, validateNode(child, fmt.Sprintf("Page %d, Field %d", i, j))...)
	}
	return errs
}

func validateNode(raw any, loc string) []string {
	var errs []string
	node, _ := raw.(map[string]any)

	if !truthy(node["name"]) {
		return []string{fmt.Sprintf("%s: Missing 'name' field", loc)}
	}
	name, _ := node["name"].(string)
	kind := Kind(name)
	if !kind.Valid() {
		errs = append(errs, fmt.Sprintf("%s: Invalid field type '%v'", loc, node["name"]))
	}

	props, _ := node["props"].(map[string]any)
	if len(props) == 0 {
		return append(errs, fmt.Sprintf("%s: Missing 'props' field", loc))
	}

	switch kind {
	case KindGroup:
		if !truthy(props[PropLabel]) {
			errs = append(errs, fmt.Sprintf("%s: Group missing 'xfLabel'", loc))
		}
	default:
		if !truthy(props[PropName]) {
			errs = append(errs, fmt.Sprintf("%s: Field missing 'xfName'", loc))
		}
		if !truthy(props[PropLabel]) && kind != KindHidden {
			errs = append(errs, fmt.Sprintf("%s: Field missing 'xfLabel'", loc))
		}
		if kind == KindSelect && !truthy(props[PropOptions]) {
			errs = append(errs, fmt.Sprintf("%s: Select field missing 'xfOptions'", loc))
		}
	}

	if kind.IsContainer() {
		children, _ := props[PropChildren].([]any)
		for k, child := range children {
			errs = append(errs, validateNode(child, fmt.Sprintf("%s, Child %d", loc, k))...)
		}
	}
	return errs
}

// truthy treats absent, empty and whitespace-only values as missing
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	case bool:
		return t
	default:
		return true
	}
}
