package tree

import "fmt"

// Kind classifies a native node.
type Kind int

const (
	// KindHost is a primitive leaf element such as "button".
	KindHost Kind = iota
	// KindComposite is a component instance.
	KindComposite
	// KindPassThrough groups children without rendering itself (Fragment,
	// StrictMode).
	KindPassThrough
)

func (k Kind) String() string {
	switch k {
	case KindHost:
		return "host"
	case KindComposite:
		return "composite"
	case KindPassThrough:
		return "pass-through"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Native is the node adapter a renderer implements for its committed tree.
type Native interface {
	// Type is the element type: a host tag string, a component value or a
	// pass-through marker.
	Type() any
	Kind() Kind
	Key() string
	Props() map[string]any
	Children() []NativeChild
	// Parent returns nil for the root.
	Parent() Native
	// Instance returns the component instance backing a composite node, or
	// nil.
	Instance() any
}

// RefHolder is implemented by native nodes that carry a primary ref.
type RefHolder interface {
	Ref() any
}

// RefTable is implemented by instances that keep legacy named refs.
type RefTable interface {
	Refs() map[string]any
}

// NativeChild is one child slot of a native node: a text run or a node.
// Build it with TextChild or NodeChild. A slot that is neither, such as
// NodeChild(nil), is empty and skipped by queries and serialization.
type NativeChild struct {
	Text   string
	Node   Native
	isText bool
}

// TextChild returns a text child.
func TextChild(s string) NativeChild { return NativeChild{Text: s, isText: true} }

// NodeChild returns a node child.
func NodeChild(n Native) NativeChild { return NativeChild{Node: n} }

// IsText reports whether the child is a text run.
func (c NativeChild) IsText() bool { return c.isText }

// IsNode reports whether the child holds a node.
func (c NativeChild) IsNode() bool { return !c.isText && c.Node != nil }
