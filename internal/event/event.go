// Package event builds the synthetic events dispatched into a tree.
//
// Two layers exist. A HostEvent stands in for the platform event a primitive
// node would receive. A WrappedEvent is the framework-level event handed to
// handler props; it wraps a HostEvent and forwards PreventDefault and
// StopPropagation to it.
//
// Instead of one type per platform event class, every event is a single
// record with a Kind discriminant and a kind-specific Detail. Details are
// decoded from the descriptor options with mapstructure, so the same option
// map that overrides base fields also fills typed fields like Key or
// PropertyName.
package event

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Descriptor names an event type plus optional field overrides.
type Descriptor struct {
	Type    string         `yaml:"type" json:"type"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// HostEvent is a synthetic platform event.
type HostEvent struct {
	Type               string
	Kind               Kind
	Bubbles            bool
	Cancelable         bool
	DefaultPrevented   bool
	PropagationStopped bool
	TimeStamp          time.Duration
	Target             any
	CurrentTarget      any

	// Fields holds every option other than target/currentTarget, verbatim.
	Fields map[string]any

	// Detail is the kind-specific record; its Kind() equals Kind.
	Detail Detail
}

// PreventDefault marks the event's default action as prevented. The call is
// recorded for every kind, cancelable or not, so the wrapper and the host
// always agree.
func (e *HostEvent) PreventDefault() {
	e.DefaultPrevented = true
}

// StopPropagation stops the event from reaching further listeners.
func (e *HostEvent) StopPropagation() {
	e.PropagationStopped = true
}

// Field returns a verbatim option value.
func (e *HostEvent) Field(name string) (any, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// Factory builds events with deterministic timestamps.
type Factory struct {
	now func() time.Duration
	seq time.Duration
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithClock sets the timestamp source, typically a loop's virtual clock.
func WithClock(now func() time.Duration) FactoryOption {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// NewFactory creates a factory. Without WithClock, timestamps count up one
// millisecond per event built.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{}
	f.now = func() time.Duration {
		f.seq += time.Millisecond
		return f.seq
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Build creates a host event of type typ. Unknown types build a generic
// event rather than failing. Options override bubbles/cancelable/timeStamp,
// set target/currentTarget (each defaulting to the other), and are copied
// verbatim into Fields; kind-specific options are also decoded into Detail.
func (f *Factory) Build(typ string, options map[string]any) (*HostEvent, error) {
	info := lookup(typ)
	e := &HostEvent{
		Type:       typ,
		Kind:       info.kind,
		Bubbles:    info.bubbles,
		Cancelable: info.cancelable,
		TimeStamp:  f.now(),
		Fields:     make(map[string]any, len(options)),
	}

	for name, value := range options {
		switch name {
		case "target":
			e.Target = value
		case "currentTarget":
			e.CurrentTarget = value
		default:
			e.Fields[name] = value
		}
	}
	if e.Target == nil {
		e.Target = e.CurrentTarget
	}
	if e.CurrentTarget == nil {
		e.CurrentTarget = e.Target
	}
	if v, ok := e.Fields["bubbles"].(bool); ok {
		e.Bubbles = v
	}
	if v, ok := e.Fields["cancelable"].(bool); ok {
		e.Cancelable = v
	}
	if v, ok := e.Fields["timeStamp"].(time.Duration); ok {
		e.TimeStamp = v
	}

	detail, err := decodeDetail(info.kind, e.Fields)
	if err != nil {
		return nil, fmt.Errorf("build %q event: %w", typ, err)
	}
	e.Detail = detail
	return e, nil
}

// Describe builds a host event from a descriptor.
func (f *Factory) Describe(d Descriptor) (*HostEvent, error) {
	return f.Build(d.Type, d.Options)
}

func decodeDetail(kind Kind, fields map[string]any) (Detail, error) {
	target := newDetail(kind)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "event",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(fields); err != nil {
		return nil, err
	}
	return reflect.ValueOf(target).Elem().Interface().(Detail), nil
}

// WrappedEvent is the framework-level event passed to handler props.
type WrappedEvent struct {
	Type          string
	Kind          Kind
	Bubbles       bool
	Cancelable    bool
	TimeStamp     time.Duration
	Target        any
	CurrentTarget any
	Fields        map[string]any
	Detail        Detail

	native             *HostEvent
	defaultPrevented   bool
	propagationStopped bool
	persistent         bool
}

// BuildWrapped normalises a framework type name ("onClick", "click",
// "onDoubleClick") to its host type, builds the host event and wraps it.
// Function-valued host fields are not copied onto the wrapper.
func (f *Factory) BuildWrapped(typ string, options map[string]any) (*WrappedEvent, error) {
	host, err := f.Build(NormalizeType(typ), options)
	if err != nil {
		return nil, err
	}
	return Wrap(host), nil
}

// Wrap creates a framework event around an existing host event.
func Wrap(host *HostEvent) *WrappedEvent {
	w := &WrappedEvent{
		Type:          host.Type,
		Kind:          host.Kind,
		Bubbles:       host.Bubbles,
		Cancelable:    host.Cancelable,
		TimeStamp:     host.TimeStamp,
		Target:        host.Target,
		CurrentTarget: host.CurrentTarget,
		Fields:        make(map[string]any, len(host.Fields)),
		Detail:        host.Detail,
		native:        host,
	}
	for name, value := range host.Fields {
		if value != nil && reflect.TypeOf(value).Kind() == reflect.Func {
			continue
		}
		w.Fields[name] = value
	}
	return w
}

// Native returns the wrapped host event.
func (w *WrappedEvent) Native() *HostEvent { return w.native }

// PreventDefault forwards to the host event, then marks the wrapper.
func (w *WrappedEvent) PreventDefault() {
	w.native.PreventDefault()
	w.defaultPrevented = true
}

// StopPropagation forwards to the host event, then marks the wrapper.
func (w *WrappedEvent) StopPropagation() {
	w.native.StopPropagation()
	w.propagationStopped = true
}

// IsDefaultPrevented reports whether PreventDefault was called on the
// wrapper.
func (w *WrappedEvent) IsDefaultPrevented() bool { return w.defaultPrevented }

// IsPropagationStopped reports whether StopPropagation was called on the
// wrapper.
func (w *WrappedEvent) IsPropagationStopped() bool { return w.propagationStopped }

// Persist opts the event out of pooling. Events are never pooled here, so
// this only sets the flag.
func (w *WrappedEvent) Persist() { w.persistent = true }

// IsPersistent reports whether Persist was called.
func (w *WrappedEvent) IsPersistent() bool { return w.persistent }

// Field returns a copied option value.
func (w *WrappedEvent) Field(name string) (any, bool) {
	v, ok := w.Fields[name]
	return v, ok
}

// String renders the event type and its option names, for diagnostics.
func (w *WrappedEvent) String() string {
	names := make([]string, 0, len(w.Fields))
	for name := range w.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s(%s){%s}", w.Kind, w.Type, strings.Join(names, ","))
}

// hostAliases are framework names whose host type is not simply the
// lower-cased name.
var hostAliases = map[string]string{
	"doubleclick": "dblclick",
}

// NormalizeType maps a framework event name to its host type:
// "onClick" -> "click", "onMouseEnter" -> "mouseenter",
// "onClickCapture" -> "click", "onDoubleClick" -> "dblclick". Names without
// the "on" prefix convention are only lower-cased.
func NormalizeType(name string) string {
	if len(name) > 2 && strings.HasPrefix(name, "on") && name[2] >= 'A' && name[2] <= 'Z' {
		name = name[2:]
		name = strings.TrimSuffix(name, "Capture")
	}
	name = strings.ToLower(name)
	if alias, ok := hostAliases[name]; ok {
		return alias
	}
	return name
}
