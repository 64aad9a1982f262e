package tree

import (
	"reflect"
	"unicode"
	"unicode/utf8"
)

// Ref resolves a ref on the node.
//
// Without a name it returns the node's primary ref. With a name it looks for
// an exported field of that name on the component instance (the first
// letter is upper-cased), then in the instance's legacy ref table. It
// returns nil when nothing matches.
func (n *Node) Ref(name ...string) any {
	if len(name) == 0 || name[0] == "" {
		if holder, ok := n.native.(RefHolder); ok {
			return holder.Ref()
		}
		return nil
	}
	instance := n.native.Instance()
	if instance == nil {
		return nil
	}
	if v, ok := field(instance, name[0]); ok {
		return v
	}
	if table, ok := instance.(RefTable); ok {
		return table.Refs()[name[0]]
	}
	return nil
}

func field(instance any, name string) (any, bool) {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, false
	}
	f := v.FieldByName(exported(name))
	if !f.IsValid() || !f.CanInterface() {
		return nil, false
	}
	return f.Interface(), true
}

func exported(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return name
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
