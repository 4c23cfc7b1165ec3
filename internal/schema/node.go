package schema

import "fmt"

// Form is the schema root
type Form struct {
	Navigation string
	Pages      []*Page
}

// Page is one navigable section of a form
type Page struct {
	Name     string
	Label    string
	Children []Node
}

// Node is a page child: either a *Field or a *Group
type Node interface {
	NodeKind() Kind
	isNode()
}

// Field is a leaf input
type Field struct {
	Kind    Kind
	Name    string
	Label   string
	Default string
	Attrs   map[string]any
}

// Group is a container of further nodes. Kind is KindGroup or KindMultivalue;
// a plain group needs no machine name.
type Group struct {
	Kind     Kind
	Name     string
	Label    string
	Attrs    map[string]any
	Children []Node
}

func (*Field) isNode() {}
func (*Group) isNode() {}

// NodeKind returns the field kind
func (f *Field) NodeKind() Kind { return f.Kind }

// NodeKind returns KindGroup or KindMultivalue
func (g *Group) NodeKind() Kind { return g.Kind }

// NewForm returns an empty form with table-of-contents navigation
func NewForm() *Form {
	return &Form{Navigation: NavigationTOC}
}

// AddPage appends p to the form
func (f *Form) AddPage(p *Page) {
	f.Pages = append(f.Pages, p)
}

// Populated reports whether at least one page carries a child
func (f *Form) Populated() bool {
	if f == nil {
		return false
	}
	for _, p := range f.Pages {
		if p != nil && len(p.Children) > 0 {
			return true
		}
	}
	return false
}

// FieldCount counts leaf fields across all pages, including those nested in groups
func (f *Form) FieldCount() int {
	n := 0
	for _, p := range f.Pages {
		Walk(p.Children, func(node Node) {
			if _, ok := node.(*Field); ok {
				n++
			}
		})
	}
	return n
}

// Page returns the page with the given name
func (f *Form) Page(name string) (*Page, bool) {
	for _, p := range f.Pages {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// NewPage creates a page
func NewPage(name, label string, children ...Node) *Page {
	return &Page{Name: name, Label: label, Children: children}
}

// Add appends nodes to the page
func (p *Page) Add(nodes ...Node) {
	p.Children = append(p.Children, nodes...)
}

// Field returns the first field with the given machine name, searching groups
func (p *Page) Field(name string) (*Field, bool) {
	var found *Field
	Walk(p.Children, func(node Node) {
		if f, ok := node.(*Field); ok && found == nil && f.Name == name {
			found = f
		}
	})
	return found, found != nil
}

// NewField creates a leaf field
func NewField(kind Kind, name, label string) *Field {
	return &Field{Kind: kind, Name: name, Label: label, Attrs: map[string]any{}}
}

// Set stores an attribute and returns the field for chaining
func (f *Field) Set(key string, value any) *Field {
	if f.Attrs == nil {
		f.Attrs = map[string]any{}
	}
	f.Attrs[key] = value
	return f
}

// Attr returns an attribute value
func (f *Field) Attr(key string) (any, bool) {
	v, ok := f.Attrs[key]
	return v, ok
}

// String returns a string attribute, or "" if absent or not a string
func (f *Field) String(key string) string {
	s, _ := f.Attrs[key].(string)
	return s
}

// WithDefault sets the default value
func (f *Field) WithDefault(v string) *Field {
	f.Default = v
	return f
}

// Prepopulate marks the field for prepopulation from source
func (f *Field) Prepopulate(source string) *Field {
	return f.Set(PropPrepopulateType, source).Set(PropPrepopulateEnabled, true)
}

// When makes the field visible only when target is answered
func (f *Field) When(target string) *Field {
	return f.Set(PropWhen, target).Set(PropWhenEnabled, true)
}

// WhenFalse makes the field visible only when target is answered no
func (f *Field) WhenFalse(target string) *Field {
	return f.When(target).Set(PropWhenContextValueType, WhenFalse)
}

// Required marks the field as required
func (f *Field) Required() *Field {
	return f.Set(PropRequired, true)
}

// NewGroup creates a labeled grouping container
func NewGroup(label string, children ...Node) *Group {
	return &Group{Kind: KindGroup, Label: label, Attrs: map[string]any{}, Children: children}
}

// NewMultivalue creates a repeating container
func NewMultivalue(name, label string, children ...Node) *Group {
	return &Group{Kind: KindMultivalue, Name: name, Label: label, Attrs: map[string]any{}, Children: children}
}

// Set stores an attribute and returns the group for chaining
func (g *Group) Set(key string, value any) *Group {
	if g.Attrs == nil {
		g.Attrs = map[string]any{}
	}
	g.Attrs[key] = value
	return g
}

// When makes the group visible only when target is answered
func (g *Group) When(target string) *Group {
	return g.Set(PropWhen, target).Set(PropWhenEnabled, true)
}

// Walk visits nodes depth-first, descending into groups
func Walk(nodes []Node, fn func(Node)) {
	for _, n := range nodes {
		switch v := n.(type) {
		case *Field:
			fn(v)
		case *Group:
			fn(v)
			Walk(v.Children, fn)
		default:
			panic(fmt.Sprintf("schema: unexpected node %T", n))
		}
	}
}
