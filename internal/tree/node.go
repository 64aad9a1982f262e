package tree

import (
	"context"
	"strings"

	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/event"
)

// Committer runs mutations inside a commit boundary. *act.Scheduler
// implements it.
type Committer interface {
	RunSync(op string, mutation func() error) error
	RunAsync(ctx context.Context, op string, mutation func() error) error
}

// Binding is the state shared by every Node of one session.
type Binding struct {
	// Committer wraps dispatches. Nil runs handlers directly.
	Committer Committer
	// Events builds dispatched events. Nil uses a fresh factory.
	Events *event.Factory
	// Generation returns the session's current commit generation. Nil means
	// snapshots never go stale.
	Generation func() uint64
	// Check reports whether the owner still accepts op; its error is
	// returned before any other dispatch precondition. Nil accepts all.
	Check func(op string) error
}

func (b *Binding) generation() uint64 {
	if b.Generation == nil {
		return 0
	}
	return b.Generation()
}

type directCommitter struct{}

func (directCommitter) RunSync(_ string, mutation func() error) error { return mutation() }

func (directCommitter) RunAsync(ctx context.Context, _ string, mutation func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return mutation()
}

// Node is a queryable view of one native node, tied to the snapshot it was
// taken from.
type Node struct {
	native  Native
	binding *Binding
	gen     uint64
}

// Wrap returns a view of n at the binding's current generation. A nil
// binding yields a standalone view whose dispatches run without a commit
// boundary.
func Wrap(n Native, b *Binding) *Node {
	if n == nil {
		return nil
	}
	if b == nil {
		b = &Binding{}
	}
	if b.Committer == nil {
		b.Committer = directCommitter{}
	}
	if b.Events == nil {
		b.Events = event.NewFactory()
	}
	return &Node{native: n, binding: b, gen: b.generation()}
}

func (n *Node) wrap(native Native) *Node {
	if native == nil {
		return nil
	}
	return &Node{native: native, binding: n.binding, gen: n.gen}
}

// Native returns the underlying native node.
func (n *Node) Native() Native { return n.native }

// Type returns the element type.
func (n *Node) Type() any { return n.native.Type() }

// Name returns the display name of the element type.
func (n *Node) Name() string { return element.TypeName(n.native.Type()) }

// Kind returns the node's classification.
func (n *Node) Kind() Kind { return n.native.Kind() }

// IsHost reports whether the node is a host primitive.
func (n *Node) IsHost() bool { return n.native.Kind() == KindHost }

// Key returns the element key, or "".
func (n *Node) Key() string { return n.native.Key() }

// Instance returns the component instance, or nil.
func (n *Node) Instance() any { return n.native.Instance() }

// Generation returns the commit generation this view was taken at.
func (n *Node) Generation() uint64 { return n.gen }

// Stale reports whether the session has committed since this view was taken.
func (n *Node) Stale() bool { return n.binding.generation() != n.gen }

// Props returns a copy of the node's props.
func (n *Node) Props() map[string]any {
	src := n.native.Props()
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// Prop returns one prop value.
func (n *Node) Prop(name string) (any, bool) {
	v, ok := n.native.Props()[name]
	return v, ok
}

// Parent returns the parent view, or nil at the root.
func (n *Node) Parent() *Node { return n.wrap(n.native.Parent()) }

// Children returns the node's children in order.
func (n *Node) Children() []Child {
	native := n.native.Children()
	out := make([]Child, 0, len(native))
	for _, c := range native {
		switch {
		case c.IsText():
			out = append(out, Child{text: c.Text, isText: true})
		case c.IsNode():
			out = append(out, Child{node: n.wrap(c.Node)})
		}
	}
	return out
}

// Text returns the concatenated text content of the subtree.
func (n *Node) Text() string {
	var b strings.Builder
	writeText(&b, n.native)
	return b.String()
}

func writeText(b *strings.Builder, native Native) {
	for _, c := range native.Children() {
		switch {
		case c.IsText():
			b.WriteString(c.Text)
		case c.IsNode():
			writeText(b, c.Node)
		}
	}
}

// String returns "<name>".
func (n *Node) String() string { return "<" + n.Name() + ">" }

// Child is one child of a Node: a text run or a node.
type Child struct {
	node   *Node
	text   string
	isText bool
}

// IsText reports whether the child is a text run.
func (c Child) IsText() bool { return c.isText }

// Text returns the text run, or "" for node children.
func (c Child) Text() string { return c.text }

// Node returns the child node, or nil for text children.
func (c Child) Node() *Node { return c.node }
