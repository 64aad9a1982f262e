package testutil

import (
	"fmt"

	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/tree"
)

// FakeNode is a hand-built tree.Native for tests that need a tree without a
// renderer.
type FakeNode struct {
	typ      any
	kind     tree.Kind
	key      string
	props    map[string]any
	children []tree.NativeChild
	parent   *FakeNode
	instance any
	ref      any
}

// Host builds a host node. Children are *FakeNode values or strings.
func Host(tag string, props map[string]any, children ...any) *FakeNode {
	return build(tag, tree.KindHost, props, children)
}

// Composite builds a composite node of the given element type.
func Composite(typ any, props map[string]any, children ...any) *FakeNode {
	return build(typ, tree.KindComposite, props, children)
}

// PassThrough builds a Fragment or StrictMode node.
func PassThrough(typ element.PassThrough, children ...any) *FakeNode {
	return build(typ, tree.KindPassThrough, nil, children)
}

func build(typ any, kind tree.Kind, props map[string]any, children []any) *FakeNode {
	if props == nil {
		props = map[string]any{}
	}
	n := &FakeNode{typ: typ, kind: kind, props: props}
	for _, c := range children {
		switch c := c.(type) {
		case *FakeNode:
			c.parent = n
			n.children = append(n.children, tree.NodeChild(c))
		case string:
			n.children = append(n.children, tree.TextChild(c))
		case tree.NativeChild:
			n.children = append(n.children, c)
		default:
			n.children = append(n.children, tree.TextChild(fmt.Sprint(c)))
		}
	}
	return n
}

// WithKey sets the node's key.
func (n *FakeNode) WithKey(key string) *FakeNode {
	n.key = key
	return n
}

// WithRef sets the node's primary ref.
func (n *FakeNode) WithRef(ref any) *FakeNode {
	n.ref = ref
	return n
}

// WithInstance sets the component instance.
func (n *FakeNode) WithInstance(instance any) *FakeNode {
	n.instance = instance
	return n
}

func (n *FakeNode) Type() any { return n.typ }
func (n *FakeNode) Kind() tree.Kind { return n.kind }
func (n *FakeNode) Key() string { return n.key }
func (n *FakeNode) Props() map[string]any { return n.props }
func (n *FakeNode) Children() []tree.NativeChild { return n.children }
func (n *FakeNode) Instance() any { return n.instance }
func (n *FakeNode) Ref() any { return n.ref }

// Parent returns the parent node or nil at the root.
func (n *FakeNode) Parent() tree.Native {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Component is a named composite type for fake trees.
type Component struct {
	Name string
}

// ComponentName implements element.Component.
func (c *Component) ComponentName() string { return c.Name }
