package tree

import (
	"errors"
	"fmt"
)

// ErrStaleSnapshot is returned when a node from an older commit is used to
// dispatch.
var ErrStaleSnapshot = errors.New("tree: stale snapshot")

// CardinalityError reports that FindOne did not match exactly one node.
type CardinalityError struct {
	Type  string
	Count int
}

func (e *CardinalityError) Error() string {
	if e.Count == 0 {
		return fmt.Sprintf("expected 1 node of type %q, found none", e.Type)
	}
	return fmt.Sprintf("expected 1 node of type %q, found %d", e.Type, e.Count)
}

// MissingPropError reports a dispatch to a prop the node does not have.
type MissingPropError struct {
	Node string
	Prop string
}

func (e *MissingPropError) Error() string {
	return fmt.Sprintf("no prop %q on <%s>", e.Prop, e.Node)
}

// NotCallableError reports a dispatch to a prop that is not a function.
type NotCallableError struct {
	Node  string
	Prop  string
	Value any
}

func (e *NotCallableError) Error() string {
	return fmt.Sprintf("prop %q on <%s> is not callable (got %T)", e.Prop, e.Node, e.Value)
}

// NotHostNodeError reports a dispatch attempted on a composite or
// pass-through node.
type NotHostNodeError struct {
	Node string
	Kind Kind
	Prop string
}

func (e *NotHostNodeError) Error() string {
	return fmt.Sprintf("cannot dispatch %q on <%s>: %s node, events can only be dispatched on host nodes", e.Prop, e.Node, e.Kind)
}

// ArgumentError reports a handler argument that cannot be passed to the
// handler's parameter type.
type ArgumentError struct {
	Prop  string
	Index int
	Want  string
	Got   string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("handler %q argument %d: cannot use %s as %s", e.Prop, e.Index, e.Got, e.Want)
}

// IsCardinalityError reports whether err is a *CardinalityError.
func IsCardinalityError(err error) bool {
	var target *CardinalityError
	return errors.As(err, &target)
}

// IsMissingPropError reports whether err is a *MissingPropError.
func IsMissingPropError(err error) bool {
	var target *MissingPropError
	return errors.As(err, &target)
}

// IsNotCallableError reports whether err is a *NotCallableError.
func IsNotCallableError(err error) bool {
	var target *NotCallableError
	return errors.As(err, &target)
}

// IsNotHostNodeError reports whether err is a *NotHostNodeError.
func IsNotHostNodeError(err error) bool {
	var target *NotHostNodeError
	return errors.As(err, &target)
}
