package memrender

import (
	"log/slog"
	"reflect"

	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/element"
)

// RenderFunc renders a component. It may return an *element.Element, text,
// a number, a []any of those, or nil.
type RenderFunc func(ctx *Context, props element.Props) any

// Component is a named function component. Compare components by pointer.
type Component struct {
	name   string
	render RenderFunc
}

// Define creates a component.
func Define(name string, render RenderFunc) *Component {
	return &Component{name: name, render: render}
}

// ComponentName implements element.Component.
func (c *Component) ComponentName() string { return c.name }

// Instance is the public instance of a mounted component. It carries the
// refs the component exposed with Context.Expose.
type Instance struct {
	Component *Component
	refs      map[string]any
}

// Refs returns the exposed refs.
func (i *Instance) Refs() map[string]any { return i.refs }

// Context is passed to a component while it renders.
type Context struct {
	inst   *instance
	cursor int
}

// Loop returns the event loop async work should be scheduled on.
func (c *Context) Loop() *async.Loop { return c.inst.root.loop }

// Console returns the logger whose warnings and errors the commit boundary
// suppresses.
func (c *Context) Console() *slog.Logger { return c.inst.root.console.Logger() }

// Children returns the children passed to the component element.
func (c *Context) Children() []any { return c.inst.element.Children }

// Expose publishes a named ref on the component instance.
func (c *Context) Expose(name string, value any) {
	c.inst.public.refs[name] = value
}

// next returns the hook slot at the cursor, creating it with create on the
// first render.
func (c *Context) next(kind string, create func() any) any {
	i := c.cursor
	c.cursor++
	if i < len(c.inst.hooks) {
		h := c.inst.hooks[i]
		if hookKind(h) != kind {
			panic(renderPanic{&HookOrderError{
				Component: c.inst.name(),
				Index:     i,
				Reason:    "expected " + hookKind(h) + " hook, got " + kind,
			}})
		}
		return h
	}
	if c.inst.rendered {
		panic(renderPanic{&HookOrderError{
			Component: c.inst.name(),
			Index:     i,
			Reason:    "rendered more hooks than during the previous render",
		}})
	}
	h := create()
	c.inst.hooks = append(c.inst.hooks, h)
	return h
}

type stateHook struct {
	value any
}

type effectHook struct {
	deps     []any
	hasDeps  bool
	effect   func() func()
	cleanup  func()
	pending  bool
	mounted  bool
	instance *instance
}

type refHook struct {
	ref *element.Ref
}

func hookKind(h any) string {
	switch h.(type) {
	case *stateHook:
		return "state"
	case *effectHook:
		return "effect"
	case *refHook:
		return "ref"
	default:
		return "unknown"
	}
}

// UseState returns the current state and a setter. Setting a different
// value schedules a re-render of the root.
func UseState[T any](c *Context, initial T) (T, func(T)) {
	h := c.next("state", func() any { return &stateHook{value: initial} }).(*stateHook)
	inst := c.inst
	set := func(v T) {
		if inst.unmounted {
			inst.root.console.Logger().Error("cannot update state of an unmounted component",
				"component", inst.name())
			return
		}
		if reflect.DeepEqual(h.value, v) {
			return
		}
		h.value = v
		inst.root.dirty = true
	}
	v, _ := h.value.(T)
	return v, set
}

// UseEffect schedules effect to run after the commit. With nil deps it runs
// after every render; otherwise only when deps change. The returned
// function, if any, runs before the next effect and on unmount.
func UseEffect(c *Context, effect func() func(), deps []any) {
	inst := c.inst
	h := c.next("effect", func() any { return &effectHook{instance: inst} }).(*effectHook)
	if h.mounted && deps != nil && h.hasDeps && reflect.DeepEqual(h.deps, deps) {
		return
	}
	h.deps = deps
	h.hasDeps = deps != nil
	h.effect = effect
	if !h.pending {
		h.pending = true
		inst.root.effects = append(inst.root.effects, h)
	}
}

// UseRef returns a ref cell that persists across renders.
func UseRef(c *Context, initial any) *element.Ref {
	h := c.next("ref", func() any { return &refHook{ref: &element.Ref{Current: initial}} }).(*refHook)
	return h.ref
}
