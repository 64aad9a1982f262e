// Package debug renders a committed tree as indented, JSX-like text.
//
// Output is deterministic: props are ordered, map and set entries are
// sorted, and every string is NFC-normalised, so two serializations of the
// same snapshot with the same Options are byte-identical.
package debug

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/tree"
)

// item is one entry of the filtered tree: a text run or an included node
// with its filtered children.
type item struct {
	text     string
	isText   bool
	node     tree.Native
	children []item
}

type serializer struct {
	opts Options
	f    *formatter
}

// Serialize renders root. Nodes excluded by the options are replaced by
// their children, so a hidden root may yield several top-level entries.
func Serialize(root tree.Native, opts Options) string {
	opts = opts.normalized()
	s := &serializer{opts: opts, f: newFormatter(opts)}

	var lines []string
	if root != nil {
		for _, it := range s.collect(root) {
			lines = append(lines, s.render(it, 0))
		}
	}
	out := strings.Join(lines, "\n")
	if opts.Log {
		fmt.Fprintln(opts.output(), out)
	}
	return out
}

func (s *serializer) include(n tree.Native) bool {
	switch n.Kind() {
	case tree.KindHost:
		return s.opts.HostElements
	case tree.KindComposite:
		return s.opts.CompositeElements
	case tree.KindPassThrough:
		return s.opts.PassThrough
	}
	return true
}

func (s *serializer) collect(n tree.Native) []item {
	var children []item
	for _, c := range n.Children() {
		switch {
		case c.IsText():
			children = append(children, item{text: norm.NFC.String(c.Text), isText: true})
		case c.IsNode():
			children = append(children, s.collect(c.Node)...)
		}
	}
	if !s.include(n) {
		return children
	}
	return []item{{node: n, children: children}}
}

func (s *serializer) render(it item, indent int) string {
	pad := strings.Repeat(" ", indent)
	if it.isText {
		return pad + strings.ReplaceAll(it.text, "\n", "\n"+pad)
	}

	name := element.TypeName(it.node.Type())
	props := s.props(it.node, indent)
	children := it.children
	if !s.opts.Children {
		children = nil
	}

	if len(children) == 0 {
		return pad + s.tag(name, props, " />", "/>", indent)
	}
	if len(props) == 0 && allText(children) {
		var text strings.Builder
		for _, c := range children {
			text.WriteString(c.text)
		}
		return pad + "<" + name + ">" + text.String() + "</" + name + ">"
	}

	var b strings.Builder
	b.WriteString(pad)
	b.WriteString(s.tag(name, props, ">", ">", indent))
	for _, c := range children {
		b.WriteString("\n")
		b.WriteString(s.render(c, indent+2))
	}
	b.WriteString("\n")
	b.WriteString(pad)
	b.WriteString("</" + name + ">")
	return b.String()
}

// tag renders an opening tag, on one line when it fits and otherwise with
// one prop per line and the closer on its own line.
func (s *serializer) tag(name string, props []string, inlineClose, blockClose string, indent int) string {
	one := "<" + name
	for _, p := range props {
		one += " " + p
	}
	one += inlineClose
	if indent+len(one) <= s.opts.Width && !strings.Contains(one, "\n") {
		return one
	}
	pad := strings.Repeat(" ", indent)
	var b strings.Builder
	b.WriteString("<" + name)
	for _, p := range props {
		b.WriteString("\n" + pad + "  " + p)
	}
	b.WriteString("\n" + pad + blockClose)
	return b.String()
}

func allText(items []item) bool {
	for _, it := range items {
		if !it.isText {
			return false
		}
	}
	return true
}

type prop struct {
	name  string
	value any
}

// props renders a node's props in display order.
func (s *serializer) props(n tree.Native, indent int) []string {
	var out []string
	if s.opts.KeyAndRef {
		if key := n.Key(); key != "" {
			out = append(out, s.attr(prop{"key", key}, indent))
		}
		if holder, ok := n.(tree.RefHolder); ok {
			if ref := holder.Ref(); ref != nil {
				out = append(out, s.attr(prop{"ref", ref}, indent))
			}
		}
	}

	values := n.Props()
	var flags, plain, handlers []prop
	for _, name := range s.order(n, values) {
		p := prop{name, values[name]}
		if name == "children" || (!s.opts.Falsy && falsy(p.value)) {
			continue
		}
		switch {
		case !s.opts.GroupProps:
			plain = append(plain, p)
		case p.value == true:
			flags = append(flags, p)
		case isFunc(p.value):
			handlers = append(handlers, p)
		default:
			plain = append(plain, p)
		}
	}
	for _, group := range [][]prop{flags, plain, handlers} {
		for _, p := range group {
			out = append(out, s.attr(p, indent))
		}
	}
	return out
}

// order returns prop names sorted, or in declaration order when sorting is
// off and the node reports one.
func (s *serializer) order(n tree.Native, values map[string]any) []string {
	if !s.opts.SortProps {
		if po, ok := n.(PropOrder); ok {
			names := po.PropNames()
			if len(names) == len(values) {
				return names
			}
		}
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *serializer) attr(p prop, indent int) string {
	if p.value == true {
		return p.name
	}
	at := position{indent: indent + 2, start: indent + 2 + len(p.name) + 2}
	formatted := s.f.format(p.value, at)
	if classify(p.value) == kindString {
		return p.name + "=" + formatted
	}
	return p.name + "={" + formatted + "}"
}

func falsy(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case string:
		return x == ""
	}
	return isNilValue(v)
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
