package schema

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when a generic tree cannot be decoded into nodes
var ErrMalformed = errors.New("malformed schema")

// Tree renders the form as the generic nested map the renderer consumes
func (f *Form) Tree() map[string]any {
	nav := f.Navigation
	if nav == "" {
		nav = NavigationTOC
	}
	pages := make([]any, 0, len(f.Pages))
	for _, p := range f.Pages {
		pages = append(pages, p.Tree())
	}
	return map[string]any{
		"name": TagForm,
		"props": map[string]any{
			PropPageNavigation: nav,
			PropChildren:       pages,
		},
	}
}

// Tree renders the page as a generic map
func (p *Page) Tree() map[string]any {
	return map[string]any{
		"name": TagPage,
		"props": map[string]any{
			PropName:     p.Name,
			PropLabel:    p.Label,
			PropChildren: nodeTrees(p.Children),
		},
	}
}

func nodeTrees(nodes []Node) []any {
	out := make([]any, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *Field:
			out = append(out, v.Tree())
		case *Group:
			out = append(out, v.Tree())
		default:
			panic(fmt.Sprintf("schema: unexpected node %T", n))
		}
	}
	return out
}

// Tree renders the field as a generic map
func (f *Field) Tree() map[string]any {
	props := copyAttrs(f.Attrs)
	if f.Name != "" {
		props[PropName] = f.Name
	}
	if f.Label != "" {
		props[PropLabel] = f.Label
	}
	if f.Default != "" {
		props[PropDefaultValue] = f.Default
	}
	return map[string]any{"name": string(f.Kind), "props": props}
}

// Tree renders the group and its children as a generic map
func (g *Group) Tree() map[string]any {
	props := copyAttrs(g.Attrs)
	if g.Name != "" {
		props[PropName] = g.Name
	}
	if g.Label != "" {
		props[PropLabel] = g.Label
	}
	props[PropChildren] = nodeTrees(g.Children)
	kind := g.Kind
	if kind == "" {
		kind = KindGroup
	}
	return map[string]any{"name": string(kind), "props": props}
}

func copyAttrs(attrs map[string]any) map[string]any {
	props := make(map[string]any, len(attrs)+3)
	for k, v := range attrs {
		props[k] = v
	}
	return props
}

// MarshalJSON encodes the form tree. Map keys are sorted by encoding/json,
// so equal forms always encode to identical bytes.
func (f *Form) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Tree())
}

// UnmarshalJSON decodes a form tree
func (f *Form) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*f = *parsed
	return nil
}

// Parse decodes JSON bytes into a typed form
func Parse(data []byte) (*Form, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return Decode(raw)
}

// Decode converts a generic tree, as produced by encoding/json, into a typed
// form. Decoding is structural only; run Validate for the full rule set.
func Decode(raw any) (*Form, error) {
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root is %T, not an object", ErrMalformed, raw)
	}
	if name, _ := root["name"].(string); name != TagForm {
		return nil, fmt.Errorf("%w: root name %q, expected %q", ErrMalformed, root["name"], TagForm)
	}
	props, ok := root["props"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: root has no props", ErrMalformed)
	}

	form := NewForm()
	if nav, ok := props[PropPageNavigation].(string); ok && nav != "" {
		form.Navigation = nav
	}
	children, _ := props[PropChildren].([]any)
	for i, c := range children {
		page, err := decodePage(c)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		form.Pages = append(form.Pages, page)
	}
	return form, nil
}

func decodePage(raw any) (*Page, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: page is %T", ErrMalformed, raw)
	}
	if name, _ := m["name"].(string); name != TagPage {
		return nil, fmt.Errorf("%w: page name %q", ErrMalformed, m["name"])
	}
	props, _ := m["props"].(map[string]any)
	page := &Page{
		Name:  stringProp(props, PropName),
		Label: stringProp(props, PropLabel),
	}
	nodes, err := decodeNodes(props[PropChildren])
	if err != nil {
		return nil, err
	}
	page.Children = nodes
	return page, nil
}

func decodeNodes(raw any) ([]Node, error) {
	list, _ := raw.([]any)
	nodes := make([]Node, 0, len(list))
	for j, c := range list {
		n, err := decodeNode(c)
		if err != nil {
			return nil, fmt.Errorf("field %d: %w", j, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func decodeNode(raw any) (Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: node is %T", ErrMalformed, raw)
	}
	name, _ := m["name"].(string)
	kind := Kind(name)
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown field type %q", ErrMalformed, name)
	}
	props, _ := m["props"].(map[string]any)

	attrs := map[string]any{}
	for k, v := range props {
		switch k {
		case PropName, PropLabel, PropChildren:
			continue
		case PropDefaultValue:
			if _, isString := v.(string); isString {
				continue
			}
		}
		attrs[k] = v
	}

	if kind.IsContainer() {
		children, err := decodeNodes(props[PropChildren])
		if err != nil {
			return nil, err
		}
		return &Group{
			Kind:     kind,
			Name:     stringProp(props, PropName),
			Label:    stringProp(props, PropLabel),
			Attrs:    attrs,
			Children: children,
		}, nil
	}
	return &Field{
		Kind:    kind,
		Name:    stringProp(props, PropName),
		Label:   stringProp(props, PropLabel),
		Default: stringProp(props, PropDefaultValue),
		Attrs:   attrs,
	}, nil
}

func stringProp(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}
