package tree

import (
	"context"
	"fmt"
	"reflect"

	"github.com/roach88/acttest/internal/event"
)

// Dispatch invokes the handler stored in prop inside a synchronous commit.
// The handler receives a wrapped event built from desc, followed by args.
// When desc.Type is empty the event type is derived from the prop name
// ("onClick" -> "click"); when desc has no target the node itself is used.
//
// It returns the handler's first non-error result.
func (n *Node) Dispatch(prop string, desc event.Descriptor, args ...any) (any, error) {
	handler, ev, err := n.prepare(prop, desc)
	if err != nil {
		return nil, err
	}
	var result any
	err = n.binding.Committer.RunSync("dispatch "+prop, func() error {
		var callErr error
		result, callErr = invoke(prop, handler, ev, args)
		return callErr
	})
	return result, err
}

// DispatchAsync is Dispatch inside an asynchronous commit: async work the
// handler spawns is drained before it returns.
func (n *Node) DispatchAsync(ctx context.Context, prop string, desc event.Descriptor, args ...any) (any, error) {
	handler, ev, err := n.prepare(prop, desc)
	if err != nil {
		return nil, err
	}
	var result any
	err = n.binding.Committer.RunAsync(ctx, "dispatch "+prop, func() error {
		var callErr error
		result, callErr = invoke(prop, handler, ev, args)
		return callErr
	})
	return result, err
}

func (n *Node) prepare(prop string, desc event.Descriptor) (any, *event.WrappedEvent, error) {
	if check := n.binding.Check; check != nil {
		if err := check("dispatch " + prop); err != nil {
			return nil, nil, err
		}
	}
	if n.Stale() {
		return nil, nil, fmt.Errorf("dispatch %q on %s: %w", prop, n, ErrStaleSnapshot)
	}
	if !n.IsHost() {
		return nil, nil, &NotHostNodeError{Node: n.Name(), Kind: n.Kind(), Prop: prop}
	}
	handler, ok := n.Prop(prop)
	if !ok || handler == nil {
		return nil, nil, &MissingPropError{Node: n.Name(), Prop: prop}
	}
	if reflect.TypeOf(handler).Kind() != reflect.Func {
		return nil, nil, &NotCallableError{Node: n.Name(), Prop: prop, Value: handler}
	}
	if reflect.ValueOf(handler).IsNil() {
		return nil, nil, &MissingPropError{Node: n.Name(), Prop: prop}
	}

	typ := desc.Type
	if typ == "" {
		typ = prop
	}
	options := make(map[string]any, len(desc.Options)+1)
	for k, v := range desc.Options {
		options[k] = v
	}
	if _, ok := options["target"]; !ok {
		options["target"] = n
	}
	ev, err := n.binding.Events.BuildWrapped(typ, options)
	if err != nil {
		return nil, nil, fmt.Errorf("dispatch %q on %s: %w", prop, n, err)
	}
	return handler, ev, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// invoke calls handler with the event followed by args. The common handler
// shapes are called directly; anything else goes through reflection, where
// missing arguments are zero values and surplus ones are dropped.
func invoke(prop string, handler any, ev *event.WrappedEvent, args []any) (any, error) {
	switch h := handler.(type) {
	case func():
		h()
		return nil, nil
	case func(*event.WrappedEvent):
		h(ev)
		return nil, nil
	case func(*event.WrappedEvent) error:
		return nil, h(ev)
	}

	fn := reflect.ValueOf(handler)
	ft := fn.Type()
	all := append([]any{ev}, args...)

	fixed := ft.NumIn()
	if ft.IsVariadic() {
		fixed--
	}
	in := make([]reflect.Value, 0, len(all))
	for i := 0; i < fixed; i++ {
		var arg any
		if i < len(all) {
			arg = all[i]
		}
		v, err := argValue(prop, i, arg, ft.In(i))
		if err != nil {
			return nil, err
		}
		in = append(in, v)
	}
	if ft.IsVariadic() {
		elem := ft.In(fixed).Elem()
		for i := fixed; i < len(all); i++ {
			v, err := argValue(prop, i, all[i], elem)
			if err != nil {
				return nil, err
			}
			in = append(in, v)
		}
	}

	var (
		result any
		err    error
	)
	for i, out := range fn.Call(in) {
		if ft.Out(i) == errorType {
			if !out.IsNil() {
				err = out.Interface().(error)
			}
			continue
		}
		if result == nil {
			result = out.Interface()
		}
	}
	return result, err
}

func argValue(prop string, index int, arg any, want reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(want), nil
	}
	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(want):
		return v, nil
	case v.Type().ConvertibleTo(want) && v.Kind() != reflect.String && want.Kind() != reflect.String:
		return v.Convert(want), nil
	default:
		return reflect.Value{}, &ArgumentError{Prop: prop, Index: index, Want: want.String(), Got: v.Type().String()}
	}
}
