package tree

import (
	"reflect"

	"github.com/roach88/acttest/internal/element"
)

// Predicate matches nodes in Query. It receives both the view and the
// native node.
type Predicate func(n *Node, native Native) bool

type queryConfig struct {
	deep bool
}

// QueryOption configures Query.
type QueryOption func(*queryConfig)

// Deep selects between a whole-subtree search (true, the default) and a
// search of the node's immediate structural children only. Pass-through
// children are looked through in the shallow search.
func Deep(deep bool) QueryOption {
	return func(c *queryConfig) {
		c.deep = deep
	}
}

// Query returns every node matching pred in depth-first document order. The
// deep search includes n itself.
func (n *Node) Query(pred Predicate, opts ...QueryOption) []*Node {
	cfg := queryConfig{deep: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	var out []*Node
	if cfg.deep {
		n.walk(n.native, func(native Native) {
			if v := n.wrap(native); pred(v, native) {
				out = append(out, v)
			}
		})
		return out
	}
	for _, native := range structuralChildren(n.native) {
		if v := n.wrap(native); pred(v, native) {
			out = append(out, v)
		}
	}
	return out
}

func (n *Node) walk(native Native, visit func(Native)) {
	visit(native)
	for _, c := range native.Children() {
		if c.IsNode() {
			n.walk(c.Node, visit)
		}
	}
}

// structuralChildren returns the node children of native, replacing
// pass-through children with their own children.
func structuralChildren(native Native) []Native {
	var out []Native
	for _, c := range native.Children() {
		if !c.IsNode() {
			continue
		}
		if c.Node.Kind() == KindPassThrough {
			out = append(out, structuralChildren(c.Node)...)
			continue
		}
		out = append(out, c.Node)
	}
	return out
}

// Find returns every node of the given type at any depth, in document
// order. typ is either a type name ("button", "Counter") or the element
// type value itself.
func (n *Node) Find(typ any) []*Node {
	return n.Query(func(_ *Node, native Native) bool {
		return matchesType(native.Type(), typ)
	})
}

// FindOne returns the only node of the given type, or a *CardinalityError.
func (n *Node) FindOne(typ any) (*Node, error) {
	found := n.Find(typ)
	if len(found) != 1 {
		return nil, &CardinalityError{Type: typeLabel(typ), Count: len(found)}
	}
	return found[0], nil
}

// FindByProps returns every node whose props include all of props, compared
// with DeepEqual.
func (n *Node) FindByProps(props map[string]any) []*Node {
	return n.Query(func(_ *Node, native Native) bool {
		have := native.Props()
		for name, want := range props {
			got, ok := have[name]
			if !ok || !DeepEqual(got, want) {
				return false
			}
		}
		return true
	})
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	if other == nil {
		return false
	}
	return len(n.Query(func(_ *Node, native Native) bool { return native == other.native })) > 0
}

// HasChild reports whether other is an immediate structural child of n.
func (n *Node) HasChild(other *Node) bool {
	if other == nil {
		return false
	}
	return len(n.Query(func(_ *Node, native Native) bool { return native == other.native }, Deep(false))) > 0
}

func matchesType(have, want any) bool {
	if name, ok := want.(string); ok {
		return element.TypeName(have) == name
	}
	if have == nil || want == nil {
		return false
	}
	ht, wt := reflect.TypeOf(have), reflect.TypeOf(want)
	if ht != wt {
		return false
	}
	if ht.Kind() == reflect.Func {
		return reflect.ValueOf(have).Pointer() == reflect.ValueOf(want).Pointer()
	}
	if !ht.Comparable() {
		return element.TypeName(have) == element.TypeName(want)
	}
	return have == want
}

func typeLabel(typ any) string {
	if name, ok := typ.(string); ok {
		return name
	}
	return element.TypeName(typ)
}
