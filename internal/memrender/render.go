package memrender

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/console"
	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/session"
	"github.com/roach88/acttest/internal/tree"
)

// maxFlushPasses bounds render/effect passes per flush, so an effect that
// always sets state cannot loop forever.
const maxFlushPasses = 50

// Renderer mounts element trees in memory. It implements session.Renderer
// and session.Flusher.
//
// Thread-safety: a Renderer belongs to the goroutine driving its sessions.
type Renderer struct {
	logger *slog.Logger
	roots  []*root
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the renderer's diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a renderer.
func New(opts ...Option) *Renderer {
	r := &Renderer{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var (
	_ session.Renderer = (*Renderer)(nil)
	_ session.Flusher  = (*Renderer)(nil)
)

type root struct {
	r        *Renderer
	loop     *async.Loop
	console  *console.Console
	mockRef  func(*element.Element) any
	element  *element.Element
	top      *instance
	snapshot *Node
	dirty    bool
	effects  []*effectHook
	cleanups []func()
	mounted  bool
}

type instance struct {
	root      *root
	kind      tree.Kind
	isText    bool
	text      string
	typ       any
	id        string
	element   *element.Element
	strict    bool
	hooks     []any
	rendered  bool
	unmounted bool
	public    *Instance
	children  []*instance
}

func (i *instance) name() string { return element.TypeName(i.typ) }

// Create mounts el and renders it once. Effects run on the next FlushSync.
func (r *Renderer) Create(el *element.Element, opts session.CreateOptions) (session.Handle, error) {
	if el == nil {
		return nil, fmt.Errorf("memrender: nil root element")
	}
	rt := &root{
		r:       r,
		loop:    opts.Loop,
		console: opts.Console,
		mockRef: opts.MockRef,
		element: el,
		mounted: true,
	}
	if rt.loop == nil {
		rt.loop = async.Default()
	}
	if rt.console == nil {
		rt.console = console.Default()
	}
	if err := rt.render(); err != nil {
		rt.unmount()
		return nil, err
	}
	r.roots = append(r.roots, rt)
	r.logger.Debug("root created", "root", el.Name())
	return rt, nil
}

// Update re-renders the root with el.
func (r *Renderer) Update(h session.Handle, el *element.Element) error {
	rt, err := r.lookup(h)
	if err != nil {
		return err
	}
	if el == nil {
		return fmt.Errorf("memrender: nil root element")
	}
	rt.element = el
	return rt.render()
}

// Unmount tears the root down and runs every effect cleanup.
func (r *Renderer) Unmount(h session.Handle) error {
	rt, err := r.lookup(h)
	if err != nil {
		return err
	}
	rt.unmount()
	for i, other := range r.roots {
		if other == rt {
			r.roots = append(r.roots[:i], r.roots[i+1:]...)
			break
		}
	}
	r.logger.Debug("root unmounted", "root", rt.element.Name())
	return nil
}

// Root returns the current committed snapshot.
func (r *Renderer) Root(h session.Handle) (tree.Native, error) {
	rt, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if rt.snapshot == nil {
		return nil, nil
	}
	return rt.snapshot, nil
}

// FlushSync re-renders dirty roots and runs pending effects until every
// root is settled.
func (r *Renderer) FlushSync() {
	for _, rt := range append([]*root(nil), r.roots...) {
		rt.flush()
	}
}

func (r *Renderer) lookup(h session.Handle) (*root, error) {
	rt, ok := h.(*root)
	if !ok || rt.r != r || !rt.mounted {
		return nil, ErrUnknownHandle
	}
	return rt, nil
}

func (rt *root) render() (err error) {
	defer func() {
		if p := recover(); p != nil {
			rp, ok := p.(renderPanic)
			if !ok {
				panic(p)
			}
			err = rp.err
		}
	}()
	rt.dirty = false
	rt.top = rt.reconcile(rt.top, rt.element, "#root", false)
	rt.snapshot = nil
	if rt.top != nil {
		rt.snapshot = rt.build(rt.top, nil)
	}
	return nil
}

func (rt *root) flush() {
	for pass := 0; pass < maxFlushPasses; pass++ {
		if !rt.mounted {
			return
		}
		if !rt.dirty && len(rt.effects) == 0 && len(rt.cleanups) == 0 {
			return
		}
		if rt.dirty {
			if err := rt.render(); err != nil {
				rt.console.Logger().Error("render failed", "root", rt.element.Name(), "error", err)
				rt.r.logger.Error("render failed", "root", rt.element.Name(), "error", err)
				return
			}
		}
		rt.runEffects()
	}
	rt.console.Logger().Error("maximum update depth exceeded", "root", rt.element.Name(), "passes", maxFlushPasses)
}

func (rt *root) runEffects() {
	cleanups := rt.cleanups
	rt.cleanups = nil
	for _, fn := range cleanups {
		fn()
	}

	effects := rt.effects
	rt.effects = nil
	for _, h := range effects {
		h.pending = false
		if h.instance.unmounted {
			continue
		}
		if h.cleanup != nil {
			h.cleanup()
			h.cleanup = nil
		}
		h.cleanup = h.effect()
		if !h.mounted && h.instance.strict {
			if h.cleanup != nil {
				h.cleanup()
			}
			h.cleanup = h.effect()
		}
		h.mounted = true
	}
}

func (rt *root) unmount() {
	if rt.top != nil {
		rt.unmountInstance(rt.top)
	}
	rt.top = nil
	rt.snapshot = nil
	rt.effects = nil
	cleanups := rt.cleanups
	rt.cleanups = nil
	for _, fn := range cleanups {
		fn()
	}
	rt.mounted = false
}

func (rt *root) unmountInstance(inst *instance) {
	inst.unmounted = true
	for _, h := range inst.hooks {
		if eh, ok := h.(*effectHook); ok && eh.cleanup != nil {
			rt.cleanups = append(rt.cleanups, eh.cleanup)
			eh.cleanup = nil
		}
	}
	if inst.element != nil {
		if ref, ok := inst.element.Props["ref"].(*element.Ref); ok && inst.kind == tree.KindHost {
			ref.Current = nil
		}
	}
	for _, c := range inst.children {
		rt.unmountInstance(c)
	}
}

// reconcile renders child against prev, reusing prev when the type matches.
func (rt *root) reconcile(prev *instance, child any, id string, strict bool) *instance {
	el, isElement := child.(*element.Element)
	isElement = isElement && el != nil
	if prev != nil && (!isElement || prev.isText || !sameType(prev.typ, el.Type)) {
		rt.unmountInstance(prev)
		prev = nil
	}

	switch c := child.(type) {
	case nil, bool:
		return nil
	case string:
		return &instance{root: rt, isText: true, text: c, id: id}
	case *element.Element:
		if c == nil {
			return nil
		}
	default:
		switch reflect.ValueOf(child).Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64, reflect.String:
			return &instance{root: rt, isText: true, text: fmt.Sprint(child), id: id}
		}
		panic(renderPanic{&UnsupportedTypeError{Type: child}})
	}

	inst := prev
	if inst == nil {
		inst = &instance{root: rt, typ: el.Type, id: id}
	}
	inst.element = el
	inst.strict = strict

	switch t := el.Type.(type) {
	case string:
		inst.kind = tree.KindHost
		inst.children = rt.reconcileChildren(inst.children, el.Children, t, strict)
	case element.PassThrough:
		inst.kind = tree.KindPassThrough
		inner := strict || t == element.StrictMode
		inst.children = rt.reconcileChildren(inst.children, el.Children, string(t), inner)
	case *Component:
		inst.kind = tree.KindComposite
		if inst.public == nil {
			inst.public = &Instance{Component: t, refs: map[string]any{}}
		}
		props := el.Props
		if props == nil {
			props = element.Props{}
		}
		ctx := &Context{inst: inst}
		out := t.render(ctx, props)
		if inst.rendered && ctx.cursor != len(inst.hooks) {
			panic(renderPanic{&HookOrderError{
				Component: t.name,
				Index:     ctx.cursor,
				Reason:    "rendered fewer hooks than during the previous render",
			}})
		}
		inst.rendered = true
		inst.children = rt.reconcileChildren(inst.children, []any{out}, t.name, strict)
	default:
		panic(renderPanic{&UnsupportedTypeError{Type: el.Type}})
	}
	return inst
}

type slot struct {
	value  any
	listed bool
}

func flatten(children []any, listed bool, out []slot) []slot {
	for _, c := range children {
		switch list := c.(type) {
		case []any:
			out = flatten(list, true, out)
		case []*element.Element:
			for _, el := range list {
				out = append(out, slot{value: el, listed: true})
			}
		default:
			out = append(out, slot{value: c, listed: listed})
		}
	}
	return out
}

// reconcileChildren matches children to prev by key, or by position for
// unkeyed children, and unmounts whatever is left over.
func (rt *root) reconcileChildren(prev []*instance, children []any, parent string, strict bool) []*instance {
	slots := flatten(children, false, nil)
	byID := make(map[string]*instance, len(prev))
	for _, p := range prev {
		byID[p.id] = p
	}

	keys := make(map[string]bool)
	missingKey := false
	out := make([]*instance, 0, len(slots))
	for i, s := range slots {
		id := fmt.Sprintf("#%d", i)
		if el, ok := s.value.(*element.Element); ok && el != nil {
			switch {
			case el.Key != "" && keys[el.Key]:
				rt.console.Logger().Error("encountered two children with the same key",
					"key", el.Key, "parent", parent)
			case el.Key != "":
				keys[el.Key] = true
				id = "key:" + el.Key
			case s.listed:
				missingKey = true
			}
		}
		p := byID[id]
		delete(byID, id)
		if inst := rt.reconcile(p, s.value, id, strict); inst != nil {
			out = append(out, inst)
		}
	}
	for _, p := range prev {
		if left, ok := byID[p.id]; ok && left == p {
			rt.unmountInstance(p)
		}
	}
	if missingKey {
		rt.console.Logger().Error(`each child in a list should have a unique "key" prop`, "parent", parent)
	}
	return out
}

// build creates the snapshot node for inst and attaches host refs.
func (rt *root) build(inst *instance, parent *Node) *Node {
	n := &Node{
		typ:    inst.typ,
		kind:   inst.kind,
		key:    inst.element.Key,
		props:  make(map[string]any, len(inst.element.Props)),
		parent: parent,
	}
	for _, name := range inst.element.PropNames() {
		value := inst.element.Props[name]
		if name == "ref" {
			n.ref = value
			continue
		}
		n.props[name] = value
		n.order = append(n.order, name)
	}
	if inst.public != nil {
		n.instance = inst.public
	}
	if ref, ok := n.ref.(*element.Ref); ok && inst.kind == tree.KindHost && ref.Current == nil {
		ref.Current = rt.mock(inst.element)
	}
	for _, c := range inst.children {
		if c.isText {
			n.children = append(n.children, tree.TextChild(c.text))
			continue
		}
		n.children = append(n.children, tree.NodeChild(rt.build(c, n)))
	}
	return n
}

func (rt *root) mock(el *element.Element) any {
	if rt.mockRef != nil {
		return rt.mockRef(el)
	}
	return &HostMock{Tag: el.Name()}
}

func sameType(a, b any) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
