package harness

import (
	"fmt"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"

	"github.com/roach88/acttest/internal/async"
	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/event"
	"github.com/roach88/acttest/internal/memrender"
)

// handlerSpec is the fixture form of a handler prop.
type handlerSpec struct {
	Record  string `mapstructure:"record"`
	Delay   int    `mapstructure:"delay"`
	Prevent bool   `mapstructure:"prevent_default"`
}

// parseHandler reports whether value describes a handler. Values that are
// not maps with a "record" entry are plain props and yield nil.
func parseHandler(value any) (*handlerSpec, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, nil
	}
	if _, ok := m["record"]; !ok {
		return nil, nil
	}
	var spec handlerSpec
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &spec,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("handler: %w", err)
	}
	if spec.Record == "" {
		return nil, fmt.Errorf("handler: record label is required")
	}
	if spec.Delay < 0 {
		return nil, fmt.Errorf("handler: delay must be non-negative")
	}
	return &spec, nil
}

// Recorder collects the labels handler props record, in call order.
type Recorder struct {
	mu     sync.Mutex
	labels []string
}

// Record appends label.
func (r *Recorder) Record(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.labels = append(r.labels, label)
}

// Labels returns a copy of the recorded labels.
func (r *Recorder) Labels() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.labels))
	copy(out, r.labels)
	return out
}

// builder turns fixtures into elements. Component types are defined once
// per builder so that repeated renders reconcile against the same type.
type builder struct {
	loop       *async.Loop
	recorder   *Recorder
	components map[string]*memrender.Component
}

func newBuilder(loop *async.Loop, rec *Recorder) *builder {
	return &builder{loop: loop, recorder: rec, components: make(map[string]*memrender.Component)}
}

// Element builds the element for f. f must have a Type.
func (b *builder) Element(f Fixture) *element.Element {
	children := make([]any, 0, len(f.Children)+1)
	if f.Text != "" {
		children = append(children, f.Text)
	}
	for _, c := range f.Children {
		if c.Type == "" {
			children = append(children, c.Text)
			continue
		}
		children = append(children, b.Element(c))
	}

	props := make(element.Props, len(f.Props))
	for name, value := range f.Props {
		// Validated on load; a parse error here leaves the raw value.
		if spec, err := parseHandler(value); err == nil && spec != nil {
			props[name] = b.handler(*spec)
			continue
		}
		props[name] = value
	}

	el := element.New(b.typeOf(f.Type), props, children...)
	if f.Key != "" {
		el.Key = f.Key
	}
	return el
}

func (b *builder) typeOf(name string) any {
	switch name {
	case string(element.Fragment):
		return element.Fragment
	case string(element.StrictMode):
		return element.StrictMode
	}
	if r, _ := utf8.DecodeRuneInString(name); !unicode.IsUpper(r) {
		return name
	}
	if c, ok := b.components[name]; ok {
		return c
	}
	c := memrender.Define(name, func(ctx *memrender.Context, _ element.Props) any {
		return element.New(element.Fragment, nil, ctx.Children()...)
	})
	b.components[name] = c
	return c
}

func (b *builder) handler(spec handlerSpec) func(*event.WrappedEvent) {
	return func(e *event.WrappedEvent) {
		if spec.Prevent {
			e.PreventDefault()
		}
		if spec.Delay == 0 {
			b.recorder.Record(spec.Record)
			return
		}
		b.loop.SetTimeout(func() { b.recorder.Record(spec.Record) }, time.Duration(spec.Delay)*time.Millisecond)
	}
}

// replaceText returns a copy of root with the text of the index-th fixture
// of type target (document order, root included) set to text. Text child
// fixtures of the match are dropped.
func replaceText(root Fixture, target string, index int, text string) (Fixture, error) {
	seen := 0
	var visit func(f Fixture) Fixture
	visit = func(f Fixture) Fixture {
		out := f
		if f.Type == target {
			if seen == index {
				out.Text = text
				out.Children = nil
				for _, c := range f.Children {
					if c.Type != "" {
						out.Children = append(out.Children, c)
					}
				}
				seen++
				return out
			}
			seen++
		}
		if len(f.Children) > 0 {
			out.Children = make([]Fixture, len(f.Children))
			for i, c := range f.Children {
				out.Children[i] = visit(c)
			}
		}
		return out
	}
	updated := visit(root)
	if index >= seen {
		return Fixture{}, fmt.Errorf("update_text: %s[%d] not found, tree has %d", target, index, seen)
	}
	return updated, nil
}
