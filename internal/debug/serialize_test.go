package debug

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"

	"github.com/roach88/acttest/internal/element"
	"github.com/roach88/acttest/internal/testutil"
	"github.com/roach88/acttest/internal/tree"
)

var app = &testutil.Component{Name: "App"}

func sampleTree() *testutil.FakeNode {
	return testutil.Composite(app, map[string]any{"title": "Demo"},
		testutil.Host("div", map[string]any{
			"className": "list",
			"hidden":    true,
			"onClick":   func() {},
			"count":     3,
		},
			testutil.Host("span", nil, "Hello"),
			testutil.Host("button", map[string]any{"disabled": false, "label": "Go"}),
			testutil.PassThrough(element.Fragment, testutil.Host("em", nil, "a", "b")),
			"tail",
		),
	)
}

func TestSerialize_Golden(t *testing.T) {
	out := Serialize(sampleTree(), DefaultOptions())

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sample_tree", []byte(out))
}

func TestSerialize_Deterministic(t *testing.T) {
	root := sampleTree()
	assert.Equal(t, Serialize(root, DefaultOptions()), Serialize(root, DefaultOptions()))
}

func TestSerialize_MapKeysThatFormatAlike(t *testing.T) {
	root := testutil.Host("div", map[string]any{
		"data": map[any]string{1: "b", int64(1): "a", uint8(1): "c"},
	})

	want := Serialize(root, DefaultOptions())
	assert.Contains(t, want, `Map{1 => "a", 1 => "b", 1 => "c"}`)
	for i := 0; i < 50; i++ {
		assert.Equal(t, want, Serialize(root, DefaultOptions()))
	}
}

func TestSerialize_SkipsEmptyChildSlots(t *testing.T) {
	root := testutil.Host("p", nil, "a", tree.NodeChild(nil), "b")
	assert.Equal(t, "<p>ab</p>", Serialize(root, DefaultOptions()))
}

func TestSerialize_NodeFilters(t *testing.T) {
	root := sampleTree()

	opts := DefaultOptions()
	opts.CompositeElements = false
	assert.Contains(t, Serialize(root, opts)[:12], "<div hidden")

	opts = DefaultOptions()
	opts.PassThrough = true
	assert.Contains(t, Serialize(root, opts), "    <Fragment>\n      <em>ab</em>\n    </Fragment>")

	opts = DefaultOptions()
	opts.HostElements = false
	assert.Equal(t, "<App title=\"Demo\">\n  Hello\n  a\n  b\n  tail\n</App>", Serialize(root, opts))
}

func TestSerialize_ChildrenHidden(t *testing.T) {
	opts := DefaultOptions()
	opts.Children = false

	assert.Equal(t, `<App title="Demo" />`, Serialize(sampleTree(), opts))
}

func TestSerialize_PropGrouping(t *testing.T) {
	node := testutil.Host("p", map[string]any{"a": func() {}, "b": true, "c": 1})

	assert.Equal(t, "<p b c={1} a={[Function]} />", Serialize(node, DefaultOptions()))

	opts := DefaultOptions()
	opts.GroupProps = false
	assert.Equal(t, "<p a={[Function]} b c={1} />", Serialize(node, opts))
}

type orderedNode struct {
	*testutil.FakeNode
	names []string
}

func (o orderedNode) PropNames() []string { return o.names }

func TestSerialize_UnsortedKeepsDeclarationOrder(t *testing.T) {
	node := orderedNode{FakeNode: testutil.Host("p", map[string]any{"z": 1, "a": 2}), names: []string{"z", "a"}}

	assert.Equal(t, "<p a={2} z={1} />", Serialize(node, DefaultOptions()))

	opts := DefaultOptions()
	opts.SortProps = false
	assert.Equal(t, "<p z={1} a={2} />", Serialize(node, opts))
}

func TestSerialize_FalsyAndKeyRef(t *testing.T) {
	node := testutil.Host("input", map[string]any{"value": "", "checked": false, "name": "q", "form": nil}).
		WithKey("k1").
		WithRef(&element.Ref{})

	opts := DefaultOptions()
	opts.Falsy = false
	assert.Equal(t, `<input name="q" />`, Serialize(node, opts))

	opts.KeyAndRef = true
	assert.Equal(t, `<input key="k1" ref={Ref {Current: nil}} name="q" />`, Serialize(node, opts))
}

func TestSerialize_WideTagBreaksProps(t *testing.T) {
	node := testutil.Host("input", map[string]any{"name": "email", "placeholder": "you@example.com", "required": true})
	opts := DefaultOptions()
	opts.Width = 30

	want := "<input\n" +
		"  required\n" +
		"  name=\"email\"\n" +
		"  placeholder=\"you@example.com\"\n" +
		"/>"
	assert.Equal(t, want, Serialize(node, opts))
}

func TestSerialize_WideValueBreaksLines(t *testing.T) {
	node := testutil.Host("div", map[string]any{"style": map[string]any{"color": "red", "fontSize": 12}})
	opts := DefaultOptions()
	opts.Width = 20

	want := "<div\n" +
		"  style={{\n" +
		"    color: \"red\",\n" +
		"    fontSize: 12,\n" +
		"  }}\n" +
		"/>"
	assert.Equal(t, want, Serialize(node, opts))
}

func TestSerialize_MaxLength(t *testing.T) {
	node := testutil.Host("ul", map[string]any{"items": []int{1, 2, 3, 4, 5}})
	opts := DefaultOptions()
	opts.MaxLength = 3

	assert.Equal(t, "<ul items={[1, 2, 3, ... 2 more]} />", Serialize(node, opts))
}

func TestSerialize_Log(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Log = true
	opts.Output = &buf

	out := Serialize(testutil.Host("br", nil), opts)

	assert.Equal(t, "<br />", out)
	assert.Equal(t, "<br />\n", buf.String())
}

func TestSerialize_NilRoot(t *testing.T) {
	assert.Empty(t, Serialize(nil, DefaultOptions()))
}

type point struct {
	X, Y   int
	hidden bool
}

type cyclic struct {
	Next *cyclic
}

type mockDiv struct{}

func (mockDiv) HostTag() string { return "div" }

func TestFormat_DispatchTable(t *testing.T) {
	loop := &cyclic{}
	loop.Next = loop

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"nil", nil, "nil"},
		{"string", "x", `"x"`},
		{"nfc", "e\u0301", "\"\u00e9\""},
		{"int", 42, "42"},
		{"float", 1.5, "1.5"},
		{"bool", false, "false"},
		{"slice", []any{1, "a"}, `[1, "a"]`},
		{"mapping", map[string]any{"b": 2, "a-b": 1}, `{"a-b": 1, b: 2}`},
		{"time", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), "Date(2024-01-02T03:04:05Z)"},
		{"duration", 1500 * time.Millisecond, "1.5s"},
		{"regexp", regexp.MustCompile(`a+`), "/a+/"},
		{"set", map[string]struct{}{"b": {}, "a": {}}, `Set{"a", "b"}`},
		{"map", map[int]string{2: "b", 1: "a"}, `Map{1 => "a", 2 => "b"}`},
		{"func", func() {}, "[Function]"},
		{"element", element.H("button", nil), "<button />"},
		{"node", testutil.Host("li", nil), "<li />"},
		{"instance", point{X: 1, Y: 2}, "point {X: 1, Y: 2}"},
		{"pointer instance", &point{X: 3}, "point {X: 3, Y: 0}"},
		{"host element", mockDiv{}, "[Host: div]"},
		{"stringer", tree.KindHost, "host"},
		{"error", errors.New("boom"), `Error("boom")`},
		{"circular", loop, "cyclic {Next: [Circular]}"},
		{"empty slice", []int{}, "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFormatter(DefaultOptions())
			assert.Equal(t, tt.want, f.format(tt.value, position{}))
		})
	}
}
