package memrender

import (
	"github.com/roach88/acttest/internal/tree"
)

// Node is one node of a committed snapshot. Snapshots are rebuilt on every
// render and never mutated afterwards.
type Node struct {
	typ      any
	kind     tree.Kind
	key      string
	props    map[string]any
	order    []string
	children []tree.NativeChild
	parent   *Node
	instance any
	ref      any
}

func (n *Node) Type() any                    { return n.typ }
func (n *Node) Kind() tree.Kind              { return n.kind }
func (n *Node) Key() string                  { return n.key }
func (n *Node) Props() map[string]any        { return n.props }
func (n *Node) Children() []tree.NativeChild { return n.children }
func (n *Node) Instance() any                { return n.instance }

// PropNames returns the prop names in the order the element declared them.
func (n *Node) PropNames() []string { return n.order }

// Ref returns the ref attached with the "ref" prop, or nil.
func (n *Node) Ref() any { return n.ref }

// Parent returns the parent node, or nil at the root.
func (n *Node) Parent() tree.Native {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// HostMock is the default stand-in attached to host refs.
type HostMock struct {
	Tag string
}

// HostTag returns the host element tag.
func (m *HostMock) HostTag() string { return m.Tag }
