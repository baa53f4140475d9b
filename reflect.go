package keyarc

import (
	"fmt"
	"reflect"
	"sync"
)

// Registered types that implement neither Encodable nor Decodable get a
// field walker derived from their exported struct fields. The field name is
// the key; a `keyarc:"name"` tag renames it, `keyarc:"-"` skips the field.
// The codec core never inspects values itself, it only calls the walker
// through the same capability contract hand-written types use.

var walkerCache sync.Map // reflect.Type -> *fieldWalker

type fieldWalker struct {
	typ    reflect.Type
	fields []walkedField
}

type walkedField struct {
	name  string
	index int
	typ   reflect.Type
}

func walkerForType(structType reflect.Type) *fieldWalker {
	if v, ok := walkerCache.Load(structType); ok {
		return v.(*fieldWalker)
	}
	w := buildWalker(structType)
	actual, _ := walkerCache.LoadOrStore(structType, w)
	return actual.(*fieldWalker)
}

func buildWalker(structType reflect.Type) *fieldWalker {
	w := &fieldWalker{typ: structType}
	seen := make(map[string]bool)
	n := structType.NumField()
	for i := 0; i < n; i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("keyarc"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		if seen[name] {
			panic(fmt.Errorf("keyarc: %v archives two fields under key %q", structType, name))
		}
		seen[name] = true
		w.fields = append(w.fields, walkedField{name: name, index: i, typ: field.Type})
	}
	if len(w.fields) == 0 {
		panic(fmt.Errorf("keyarc: %v has no encodable fields", structType))
	}
	return w
}

func (w *fieldWalker) encode(enc *Encoder, v any) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	for _, f := range w.fields {
		enc.Encode(rv.Field(f.index).Interface(), f.name)
	}
}

func (w *fieldWalker) construct(asPtr bool) func(dec *Decoder) (any, error) {
	return func(dec *Decoder) (any, error) {
		pv := reflect.New(w.typ)
		ev := pv.Elem()
		for _, f := range w.fields {
			p, ok := dec.lookupKey(f.name)
			if !ok {
				continue // archived as nil, or absent from an older archive
			}
			v, err := dec.decodeAs(p, f.typ, f.name)
			if err != nil {
				return nil, err
			}
			ev.Field(f.index).Set(reflect.ValueOf(v))
		}
		if asPtr {
			return pv.Interface(), nil
		}
		return ev.Interface(), nil
	}
}
