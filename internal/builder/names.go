package builder

import (
	"strconv"

	"github.com/a3tai/pdf-form-schema/internal/schema"
)

// UniqueNames renames repeated machine names within one page so that no two
// nodes share an identifier. The first occurrence keeps its name, later ones
// get _2, _3 and so on, skipping suffixes already in use. A conditional
// reference follows the nearest preceding node that carried the name, so a
// checklist item and its comments field stay paired after a rename.
func UniqueNames(children []schema.Node) {
	taken := map[string]bool{}
	schema.Walk(children, func(n schema.Node) {
		if name := nodeName(n); name != "" {
			taken[name] = true
		}
	})

	seen := map[string]bool{}
	latest := map[string]string{}
	schema.Walk(children, func(n schema.Node) {
		attrs := nodeAttrs(n)
		if target, ok := attrs[schema.PropWhen].(string); ok {
			if current, renamed := latest[target]; renamed && current != target {
				attrs[schema.PropWhen] = current
			}
		}

		name := nodeName(n)
		if name == "" {
			return
		}
		if !seen[name] {
			seen[name] = true
			latest[name] = name
			return
		}
		for i := 2; ; i++ {
			candidate := name + "_" + strconv.Itoa(i)
			if !taken[candidate] {
				taken[candidate] = true
				seen[candidate] = true
				latest[name] = candidate
				setNodeName(n, candidate)
				return
			}
		}
	})
}

func nodeAttrs(n schema.Node) map[string]any {
	switch v := n.(type) {
	case *schema.Field:
		return v.Attrs
	case *schema.Group:
		return v.Attrs
	}
	return nil
}

func nodeName(n schema.Node) string {
	switch v := n.(type) {
	case *schema.Field:
		return v.Name
	case *schema.Group:
		return v.Name
	}
	return ""
}

func setNodeName(n schema.Node, name string) {
	switch v := n.(type) {
	case *schema.Field:
		v.Name = name
	case *schema.Group:
		v.Name = name
	}
}
