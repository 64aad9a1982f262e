package debug

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/tree"
)

// HostElement is implemented by stand-ins for platform elements, such as
// the node mocks a renderer hands to refs.
type HostElement interface {
	HostTag() string
}

type valueKind int

const (
	kindGeneric valueKind = iota
	kindNil
	kindString
	kindNumber
	kindBool
	kindSlice
	kindMapping
	kindTime
	kindRegexp
	kindSet
	kindMap
	kindFunc
	kindElement
	kindNode
	kindInstance
	kindHost
	kindStringer
)

const maxDepth = 12

type formatFunc func(f *formatter, v any, at position) string

// position is where a value starts: indent pads continuation lines, start
// is the column of the first character.
type position struct {
	indent int
	start  int
}

func (p position) nested() position {
	return position{indent: p.indent + 2, start: p.indent + 2}
}

var formatters map[valueKind]formatFunc

func init() {
	formatters = map[valueKind]formatFunc{
		kindGeneric:  formatGeneric,
		kindNil:      func(*formatter, any, position) string { return "nil" },
		kindString:   formatString,
		kindNumber:   func(_ *formatter, v any, _ position) string { return fmt.Sprint(v) },
		kindBool:     func(_ *formatter, v any, _ position) string { return strconv.FormatBool(reflect.ValueOf(v).Bool()) },
		kindSlice:    formatSlice,
		kindMapping:  formatMapping,
		kindTime:     formatTime,
		kindRegexp:   func(_ *formatter, v any, _ position) string { return "/" + v.(*regexp.Regexp).String() + "/" },
		kindSet:      formatSet,
		kindMap:      formatMap,
		kindFunc:     func(*formatter, any, position) string { return "[Function]" },
		kindElement:  formatElement,
		kindNode:     formatNode,
		kindInstance: formatInstance,
		kindHost:     func(_ *formatter, v any, _ position) string { return "[Host: " + v.(HostElement).HostTag() + "]" },
		kindStringer: formatStringer,
	}
}

type formatter struct {
	opts  Options
	depth int
	seen  map[uintptr]bool
}

func newFormatter(opts Options) *formatter {
	return &formatter{opts: opts, seen: make(map[uintptr]bool)}
}

// format renders v starting at the given position.
func (f *formatter) format(v any, at position) string {
	if f.depth > maxDepth {
		return "[...]"
	}
	ptr, tracked := identity(v)
	if tracked {
		if f.seen[ptr] {
			return "[Circular]"
		}
		f.seen[ptr] = true
		defer delete(f.seen, ptr)
	}
	f.depth++
	defer func() { f.depth-- }()
	return formatters[classify(v)](f, v, at)
}

func identity(v any) (uintptr, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return 0, false
		}
		return rv.Pointer(), true
	}
	return 0, false
}

func classify(v any) valueKind {
	switch x := v.(type) {
	case nil:
		return kindNil
	case string:
		return kindString
	case bool:
		return kindBool
	case time.Time, time.Duration:
		return kindTime
	case *regexp.Regexp:
		if x == nil {
			return kindNil
		}
		return kindRegexp
	case *element.Element:
		if x == nil {
			return kindNil
		}
		return kindElement
	case *tree.Node:
		if x == nil {
			return kindNil
		}
		return kindNode
	case tree.Native:
		return kindNode
	case HostElement:
		return kindHost
	case error, fmt.Stringer:
		return kindStringer
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Bool:
		return kindBool
	case reflect.Slice:
		if rv.IsNil() {
			return kindNil
		}
		return kindSlice
	case reflect.Array:
		return kindSlice
	case reflect.Map:
		if rv.IsNil() {
			return kindNil
		}
		elem := rv.Type().Elem()
		switch {
		case elem.Kind() == reflect.Struct && elem.NumField() == 0:
			return kindSet
		case rv.Type().Key().Kind() == reflect.String:
			return kindMapping
		default:
			return kindMap
		}
	case reflect.Func:
		if rv.IsNil() {
			return kindNil
		}
		return kindFunc
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return kindNil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return kindInstance
		}
		return kindGeneric
	case reflect.Struct:
		return kindInstance
	}
	return kindGeneric
}

func formatGeneric(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && !rv.IsNil() {
		return f.format(rv.Elem().Interface(), at)
	}
	return fmt.Sprintf("%v", v)
}

func formatString(_ *formatter, v any, _ position) string {
	return strconv.Quote(norm.NFC.String(reflect.ValueOf(v).String()))
}

func formatTime(_ *formatter, v any, _ position) string {
	switch t := v.(type) {
	case time.Time:
		return "Date(" + t.UTC().Format(time.RFC3339Nano) + ")"
	case time.Duration:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatStringer(_ *formatter, v any, _ position) string {
	switch s := v.(type) {
	case error:
		return "Error(" + strconv.Quote(norm.NFC.String(s.Error())) + ")"
	case fmt.Stringer:
		return norm.NFC.String(s.String())
	}
	return fmt.Sprint(v)
}

func formatSlice(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	n := rv.Len()
	shown, more := f.limit(n)
	items := make([]string, 0, shown)
	for i := 0; i < shown; i++ {
		items = append(items, f.format(rv.Index(i).Interface(), at.nested()))
	}
	return f.collection("[", "]", items, more, at)
}

func formatMapping(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	shown, more := f.limit(len(keys))
	items := make([]string, 0, shown)
	for _, k := range keys[:shown] {
		label := mappingKey(k.String())
		inner := at.nested()
		inner.start += len(label) + 2
		items = append(items, label+": "+f.format(rv.MapIndex(k).Interface(), inner))
	}
	return f.collection("{", "}", items, more, at)
}

func formatMap(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	type entry struct {
		key, value string
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key := f.format(iter.Key().Interface(), at.nested())
		entries = append(entries, entry{key: key, value: f.format(iter.Value().Interface(), at.nested())})
	}
	// Distinct keys can format alike (1 and int64(1)); values break the tie.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].value < entries[j].value
	})
	shown, more := f.limit(len(entries))
	items := make([]string, 0, shown)
	for _, e := range entries[:shown] {
		items = append(items, e.key+" => "+e.value)
	}
	return f.collection("Map{", "}", items, more, at)
}

func formatSet(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	members := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		members = append(members, f.format(k.Interface(), at.nested()))
	}
	sort.Strings(members)
	shown, more := f.limit(len(members))
	return f.collection("Set{", "}", members[:shown], more, at)
}

func formatElement(_ *formatter, v any, _ position) string {
	return "<" + v.(*element.Element).Name() + " />"
}

func formatNode(_ *formatter, v any, _ position) string {
	switch n := v.(type) {
	case *tree.Node:
		return "<" + n.Name() + " />"
	case tree.Native:
		return "<" + element.TypeName(n.Type()) + " />"
	}
	return fmt.Sprint(v)
}

func formatInstance(f *formatter, v any, at position) string {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	rt := rv.Type()
	name := rt.Name()
	if name == "" {
		name = "Object"
	}
	var (
		items  []string
		fields int
	)
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		fields++
		if len(items) >= f.opts.MaxLength {
			continue
		}
		inner := at.nested()
		inner.start += len(field.Name) + 2
		items = append(items, field.Name+": "+f.format(rv.Field(i).Interface(), inner))
	}
	return f.collection(name+" {", "}", items, fields-len(items), at)
}

func (f *formatter) limit(n int) (shown, more int) {
	if n > f.opts.MaxLength {
		return f.opts.MaxLength, n - f.opts.MaxLength
	}
	return n, 0
}

// collection joins items on one line when they fit within Width, otherwise
// one item per line.
func (f *formatter) collection(open, close string, items []string, more int, at position) string {
	if more > 0 {
		items = append(items, fmt.Sprintf("... %d more", more))
	}
	if len(items) == 0 {
		return open + close
	}
	one := open + strings.Join(items, ", ") + close
	if at.start+len(one) <= f.opts.Width && !strings.Contains(one, "\n") {
		return one
	}
	var b strings.Builder
	b.WriteString(open)
	b.WriteString("\n")
	pad := strings.Repeat(" ", at.indent+2)
	for _, item := range items {
		b.WriteString(pad)
		b.WriteString(item)
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat(" ", at.indent))
	b.WriteString(close)
	return b.String()
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func mappingKey(key string) string {
	key = norm.NFC.String(key)
	if identifier.MatchString(key) {
		return key
	}
	return strconv.Quote(key)
}
