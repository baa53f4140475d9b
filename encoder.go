package keyarc

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// Encoder walks value graphs into archive state. Create one with
// NewEncoder, call Encode for each root value, then Serialize. An Encoder
// must not be used from more than one goroutine; reentrant use happens only
// as EncodeFields callbacks during one encode walk.
type Encoder struct {
	coder
	identities map[any]objIndex
}

func NewEncoder() *Encoder {
	return &Encoder{
		coder:      newCoder(),
		identities: make(map[any]objIndex),
	}
}

// Encode archives value under key. Strings become interned symbols, numeric
// leaves become fixed-width little-endian bytes, slices become lists, maps
// become tables with sorted keys, and registered types become typed values
// (inline for value kinds, deduplicated through the object table for
// reference kinds). A nil value is a no-op: the key is not written.
//
// Encoding a value of an unregistered type, or reusing a key within one
// value, panics: both are programmer errors.
func (enc *Encoder) Encode(value any, key string) {
	if isNil(value) {
		return
	}
	enc.put(key, enc.primitiveFor(value))
}

// EncodeBytes archives an opaque byte payload verbatim.
func (enc *Encoder) EncodeBytes(data []byte, key string) {
	enc.put(key, primBytes(append([]byte(nil), data...)))
}

// EncodeSymbol archives a string as an interned symbol. Equivalent to
// Encode with a string value.
func (enc *Encoder) EncodeSymbol(s string, key string) {
	enc.put(key, primSymbol(enc.syms.intern(s)))
}

// Typed leaf helpers, for callers that want the width spelled out at the
// call site. Encode accepts the same values.

func (enc *Encoder) EncodeInt(v int64, key string) {
	enc.put(key, leafUint(uint64(v), 8))
}

func (enc *Encoder) EncodeUint(v uint64, key string) {
	enc.put(key, leafUint(v, 8))
}

func (enc *Encoder) EncodeBool(v bool, key string) {
	enc.Encode(v, key)
}

func (enc *Encoder) EncodeFloat64(v float64, key string) {
	enc.put(key, leafUint(math.Float64bits(v), 8))
}

// EncodeList archives a sequence under key, mapping every element the same
// way Encode maps a value.
func EncodeList[T any](enc *Encoder, values []T, key string) {
	list := make(primList, 0, len(values))
	for _, v := range values {
		list = append(list, enc.primitiveFor(v))
	}
	enc.put(key, list)
}

// Pair is one entry of an archived table.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// EncodeTable archives an ordered key/value collection under key.
func EncodeTable[K, V any](enc *Encoder, pairs []Pair[K, V], key string) {
	table := make(primTable, 0, len(pairs))
	for _, p := range pairs {
		table = append(table, primPair{enc.primitiveFor(p.Key), enc.primitiveFor(p.Value)})
	}
	enc.put(key, table)
}

func (enc *Encoder) put(key string, p primitive) {
	sym := enc.syms.intern(key)
	if !enc.roots.put(sym, p) {
		panic(fmt.Errorf("keyarc: key %q written twice within one value", key))
	}
}

// primitiveFor compiles a single value down to a primitive, recursing
// through registered types, slices and maps.
func (enc *Encoder) primitiveFor(value any) primitive {
	switch v := value.(type) {
	case string:
		return primSymbol(enc.syms.intern(v))
	case []byte:
		return primBytes(append([]byte(nil), v...))
	case bool:
		if v {
			return primBytes{1}
		}
		return primBytes{0}
	case int:
		return leafUint(uint64(int64(v)), 8)
	case int64:
		return leafUint(uint64(v), 8)
	case int32:
		return leafUint(uint64(uint32(v)), 4)
	case int16:
		return leafUint(uint64(uint16(v)), 2)
	case int8:
		return leafUint(uint64(uint8(v)), 1)
	case uint:
		return leafUint(uint64(v), 8)
	case uint64:
		return leafUint(v, 8)
	case uint32:
		return leafUint(uint64(v), 4)
	case uint16:
		return leafUint(uint64(v), 2)
	case uint8:
		return leafUint(uint64(v), 1)
	case float64:
		return leafUint(math.Float64bits(v), 8)
	case float32:
		return leafUint(uint64(math.Float32bits(v)), 4)
	}

	rt := reflect.TypeOf(value)
	if rec := lookupByType(rt); rec != nil {
		if !rec.refKind {
			return enc.encodeValue(rec, value)
		}
		return enc.encodeReference(rec, value)
	}
	return enc.primitiveViaKind(value, rt)
}

// encodeValue runs the type's field enumeration against a fresh roots
// mapping and captures the result as a Value primitive.
func (enc *Encoder) encodeValue(rec *typeRecord, value any) *primValue {
	saved := enc.roots
	enc.roots = newFieldMap()
	rec.encode(enc, value)
	fields := enc.roots
	enc.roots = saved
	return &primValue{typeSym: enc.syms.intern(rec.name), fields: fields}
}

// encodeReference dedups a shared instance through the object table. The
// slot is reserved with a self-referential placeholder before the fields
// are walked, so a cycle reaching this instance again resolves to a
// Reference instead of recursing forever.
func (enc *Encoder) encodeReference(rec *typeRecord, value any) primitive {
	if idx, ok := enc.identities[value]; ok {
		return primReference(idx)
	}
	idx := objIndex(len(enc.objects))
	enc.identities[value] = idx
	enc.objects = append(enc.objects, primReference(idx))
	enc.objects[idx] = enc.encodeValue(rec, value)
	return primReference(idx)
}

// primitiveViaKind covers named numeric/string types, slices and maps that
// the exact-type paths above did not match.
func (enc *Encoder) primitiveViaKind(value any, rt reflect.Type) primitive {
	rv := reflect.ValueOf(value)
	switch rt.Kind() {
	case reflect.String:
		return primSymbol(enc.syms.intern(rv.String()))
	case reflect.Bool:
		if rv.Bool() {
			return primBytes{1}
		}
		return primBytes{0}
	case reflect.Int, reflect.Int64:
		return leafUint(uint64(rv.Int()), 8)
	case reflect.Int32:
		return leafUint(uint64(uint32(rv.Int())), 4)
	case reflect.Int16:
		return leafUint(uint64(uint16(rv.Int())), 2)
	case reflect.Int8:
		return leafUint(uint64(uint8(rv.Int())), 1)
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		return leafUint(rv.Uint(), 8)
	case reflect.Uint32:
		return leafUint(rv.Uint(), 4)
	case reflect.Uint16:
		return leafUint(rv.Uint(), 2)
	case reflect.Uint8:
		return leafUint(rv.Uint(), 1)
	case reflect.Float64:
		return leafUint(math.Float64bits(rv.Float()), 8)
	case reflect.Float32:
		return leafUint(uint64(math.Float32bits(float32(rv.Float()))), 4)
	case reflect.Slice, reflect.Array:
		if rt.Kind() == reflect.Slice && rt.Elem().Kind() == reflect.Uint8 {
			return primBytes(append([]byte(nil), rv.Bytes()...))
		}
		n := rv.Len()
		list := make(primList, 0, n)
		for i := 0; i < n; i++ {
			list = append(list, enc.primitiveFor(rv.Index(i).Interface()))
		}
		return list
	case reflect.Map:
		return enc.tableFromMap(rv)
	case reflect.Interface, reflect.Ptr:
		if rv.IsNil() {
			panic(fmt.Errorf("keyarc: cannot encode nil %v inside a collection", rt))
		}
	}
	panic(fmt.Errorf("keyarc: cannot encode value of unregistered type %v", rt))
}

// tableFromMap archives a Go map as a Table with keys in sorted order, so
// encoding is deterministic.
func (enc *Encoder) tableFromMap(rv reflect.Value) primitive {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return lessMapKey(keys[i], keys[j]) })
	table := make(primTable, 0, len(keys))
	for _, k := range keys {
		table = append(table, primPair{
			enc.primitiveFor(k.Interface()),
			enc.primitiveFor(rv.MapIndex(k).Interface()),
		})
	}
	return table
}

func lessMapKey(a, b reflect.Value) bool {
	switch a.Kind() {
	case reflect.String:
		return a.String() < b.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() < b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() < b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() < b.Float()
	default:
		panic(fmt.Errorf("keyarc: cannot encode map with %v keys", a.Type()))
	}
}

func leafUint(v uint64, width int) primBytes {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return primBytes(append([]byte(nil), b[:width]...))
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	switch rv := reflect.ValueOf(value); rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
