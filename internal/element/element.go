// Package element defines the declarative description a session hands to a
// renderer.
//
// An Element's Type is one of:
//   - a string: a host tag such as "button"
//   - a Component: a renderer-specific composite
//   - Fragment or StrictMode: pass-through kinds that group children without
//     producing a node of their own in debug output
package element

import (
	"fmt"
	"reflect"
	"sort"
)

// Props maps prop names to values. Key and children live on Element, not in
// Props.
type Props map[string]any

// Element is an immutable description of one tree position.
type Element struct {
	Type     any
	Key      string
	Props    Props
	Children []any // *Element, string, numeric and bool values; nil entries are skipped
	// Order lists prop names in declaration order. Props is a map, so
	// without it declaration order is unknown.
	Order []string
}

// Component is implemented by composite element types.
type Component interface {
	ComponentName() string
}

// PassThrough is the type of elements that only group children.
type PassThrough string

const (
	Fragment   PassThrough = "Fragment"
	StrictMode PassThrough = "StrictMode"
)

// Ref is a mutable reference cell attached with the "ref" prop.
type Ref struct {
	Current any
}

// New creates an element. A "key" entry in props is moved to Element.Key.
func New(typ any, props Props, children ...any) *Element {
	el := &Element{Type: typ, Props: Props{}, Children: children}
	for name, value := range props {
		if name == "key" {
			el.Key = fmt.Sprint(value)
			continue
		}
		el.Props[name] = value
	}
	return el
}

// H creates a host element.
func H(tag string, props Props, children ...any) *Element {
	return New(tag, props, children...)
}

// WithKey returns a copy of el with key set.
func (el *Element) WithKey(key string) *Element {
	cp := *el
	cp.Key = key
	return &cp
}

// WithPropOrder returns a copy of el that declares its props in the order
// given.
func (el *Element) WithPropOrder(names ...string) *Element {
	cp := *el
	cp.Order = names
	return &cp
}

// PropNames returns the names in Props: those listed in Order first, in
// that order, then the rest sorted.
func (el *Element) PropNames() []string {
	names := make([]string, 0, len(el.Props))
	seen := make(map[string]bool, len(el.Props))
	for _, name := range el.Order {
		if _, ok := el.Props[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range el.Props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// IsHost reports whether the element describes a host primitive.
func (el *Element) IsHost() bool {
	_, ok := el.Type.(string)
	return ok
}

// IsPassThrough reports whether typ is Fragment or StrictMode.
func IsPassThrough(typ any) bool {
	_, ok := typ.(PassThrough)
	return ok
}

// TypeName returns a display name for an element type.
func TypeName(typ any) string {
	switch t := typ.(type) {
	case string:
		return t
	case PassThrough:
		return string(t)
	case Component:
		return t.ComponentName()
	case nil:
		return "<nil>"
	default:
		return reflect.TypeOf(typ).String()
	}
}

// Name returns the display name of the element's type.
func (el *Element) Name() string {
	return TypeName(el.Type)
}
