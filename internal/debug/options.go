package debug

import (
	"io"
	"os"
)

// Options controls Serialize. Start from DefaultOptions; the zero value hides
// every node.
type Options struct {
	// HostElements includes host nodes such as "button".
	HostElements bool `yaml:"host_elements" json:"host_elements"`
	// CompositeElements includes component nodes.
	CompositeElements bool `yaml:"composite_elements" json:"composite_elements"`
	// PassThrough includes Fragment and StrictMode nodes.
	PassThrough bool `yaml:"pass_through" json:"pass_through"`
	// GroupProps orders props as flags, then values, then handlers.
	GroupProps bool `yaml:"group_props" json:"group_props"`
	// SortProps sorts props by name within each group. When false, props
	// keep the order reported by the node (see PropOrder), falling back to
	// name order because Go maps are unordered.
	SortProps bool `yaml:"sort_props" json:"sort_props"`
	// KeyAndRef prints key and ref before the other props.
	KeyAndRef bool `yaml:"key_and_ref" json:"key_and_ref"`
	// MaxLength is the number of collection items printed before
	// "... N more".
	MaxLength int `yaml:"max_length" json:"max_length"`
	// Width is the column past which tags and values break over lines.
	Width int `yaml:"width" json:"width"`
	// Children prints child nodes; when false every node is self-closing.
	Children bool `yaml:"children" json:"children"`
	// Falsy prints props whose value is nil, false or "".
	Falsy bool `yaml:"falsy" json:"falsy"`
	// Log writes the output, plus a newline, to Output.
	Log bool `yaml:"log" json:"log"`

	// Output receives logged output. Nil means os.Stdout.
	Output io.Writer `yaml:"-" json:"-"`
}

// DefaultOptions returns the options Serialize is normally called with.
func DefaultOptions() Options {
	return Options{
		HostElements:      true,
		CompositeElements: true,
		GroupProps:        true,
		SortProps:         true,
		MaxLength:         10,
		Width:             80,
		Children:          true,
		Falsy:             true,
	}
}

func (o Options) output() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

func (o Options) normalized() Options {
	if o.MaxLength <= 0 {
		o.MaxLength = 10
	}
	if o.Width <= 0 {
		o.Width = 80
	}
	return o
}

// PropOrder is implemented by native nodes that remember the order their
// props were declared in.
type PropOrder interface {
	PropNames() []string
}
