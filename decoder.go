package keyarc

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
)

// Decoder walks archive state back into live values. Obtain one with
// NewDecoder (from archive bytes) or Clone, then pull roots out with Decode
// and friends. A Decoder must not be used from more than one goroutine;
// reentrant use happens only as DecodeFields callbacks during one decode
// walk.
type Decoder struct {
	coder
	memo map[objIndex]any
}

// NewDecoder parses archive bytes. Any structural violation (bad tag,
// truncated read, wrong version) fails with InvalidInputError and nothing
// is partially adopted.
func NewDecoder(data []byte) (*Decoder, error) {
	dec := &Decoder{coder: newCoder(), memo: make(map[objIndex]any)}
	if err := dec.deserialize(data); err != nil {
		return nil, err
	}
	return dec, nil
}

// Decode reconstructs the value archived under key. An absent key fails
// with MissingValueError; use DecodeOptional when absence is expected.
func Decode[T any](dec *Decoder, key string) (T, error) {
	var zero T
	p, ok := dec.lookupKey(key)
	if !ok {
		return zero, &MissingValueError{Key: key}
	}
	v, err := dec.decodeAs(p, reflect.TypeOf((*T)(nil)).Elem(), key)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// DecodeOptional is Decode for keys that may legitimately be absent: an
// absent key yields the zero value and no error.
func DecodeOptional[T any](dec *Decoder, key string) (T, error) {
	var zero T
	p, ok := dec.lookupKey(key)
	if !ok {
		return zero, nil
	}
	v, err := dec.decodeAs(p, reflect.TypeOf((*T)(nil)).Elem(), key)
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// DecodeList reconstructs the list archived under key. A mismatch at any
// element fails the whole call.
func DecodeList[T any](dec *Decoder, key string) ([]T, error) {
	return Decode[[]T](dec, key)
}

// DecodeTable reconstructs the ordered key/value collection archived under
// key, preserving pair order.
func DecodeTable[K, V any](dec *Decoder, key string) ([]Pair[K, V], error) {
	p, ok := dec.lookupKey(key)
	if !ok {
		return nil, &MissingValueError{Key: key}
	}
	table, ok := p.(primTable)
	if !ok {
		return nil, &TypeMismatchError{key, "table", p.describe()}
	}
	keyType, valType := reflect.TypeOf((*K)(nil)).Elem(), reflect.TypeOf((*V)(nil)).Elem()
	pairs := make([]Pair[K, V], 0, len(table))
	for _, pp := range table {
		k, err := dec.decodeAs(pp.key, keyType, key)
		if err != nil {
			return nil, err
		}
		v, err := dec.decodeAs(pp.val, valType, key)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair[K, V]{k.(K), v.(V)})
	}
	return pairs, nil
}

// DecodeBytes returns the byte payload archived under key.
func (dec *Decoder) DecodeBytes(key string) ([]byte, error) {
	return Decode[[]byte](dec, key)
}

// DecodeSymbol returns the string archived under key.
func (dec *Decoder) DecodeSymbol(key string) (string, error) {
	return Decode[string](dec, key)
}

func (dec *Decoder) DecodeInt(key string) (int64, error) {
	return Decode[int64](dec, key)
}

func (dec *Decoder) DecodeUint(key string) (uint64, error) {
	return Decode[uint64](dec, key)
}

func (dec *Decoder) DecodeBool(key string) (bool, error) {
	return Decode[bool](dec, key)
}

func (dec *Decoder) DecodeFloat64(key string) (float64, error) {
	return Decode[float64](dec, key)
}

func (dec *Decoder) lookupKey(key string) (primitive, bool) {
	sym, ok := dec.syms.lookup(key)
	if !ok {
		return nil, false
	}
	return dec.roots.get(sym)
}

const noStash = -1

// valueFrom reconstructs a registered-type instance from a Value or
// Reference primitive. stash is the object-table slot this instance came
// from, or noStash when it is encoded inline.
//
// A reconstructed reference-kind instance enters the memo immediately after
// its constructor returns and before its RestoreReferences hook runs; that
// ordering is what lets the hook repair circular references. A cycle
// through a type without the hook recurses without terminating, which is
// inherent to construction-time resolution and deliberately not guarded.
func (dec *Decoder) valueFrom(p primitive, stash int, key string) (any, error) {
	switch pp := p.(type) {
	case primReference:
		idx := objIndex(pp)
		if v, ok := dec.memo[idx]; ok {
			return v, nil
		}
		if uint64(idx) >= uint64(len(dec.objects)) {
			return nil, invalidInputf(0, nil, "reference to object %d, archive holds %d", idx, len(dec.objects))
		}
		return dec.valueFrom(dec.objects[idx], int(idx), key)
	case *primValue:
		name, ok := dec.syms.resolve(pp.typeSym)
		if !ok {
			return nil, invalidInputf(0, nil, "type symbol %d out of range", pp.typeSym)
		}
		rec := lookupByName(name)
		if rec == nil {
			return nil, &UnknownTypeError{Name: name}
		}
		if stash != noStash && !rec.refKind {
			panic(fmt.Errorf("keyarc: value-kind type %q stored in the object table", name))
		}
		saved := dec.roots
		dec.roots = pp.fields
		v, err := rec.construct(dec)
		if err == nil && stash != noStash {
			dec.memo[objIndex(stash)] = v
			if rec.restore != nil {
				err = rec.restore(dec, v)
			}
		}
		dec.roots = saved
		if err != nil {
			return nil, err
		}
		return v, nil
	default:
		return nil, &TypeMismatchError{key, "value or reference", p.describe()}
	}
}

// decodeAs reconstructs p as an instance of the requested Go type,
// returning TypeMismatchError when the archived shape does not fit.
func (dec *Decoder) decodeAs(p primitive, want reflect.Type, key string) (any, error) {
	switch want.Kind() {
	case reflect.String:
		sym, ok := p.(primSymbol)
		if !ok {
			return nil, &TypeMismatchError{key, "symbol", p.describe()}
		}
		s, ok := dec.syms.resolve(symIndex(sym))
		if !ok {
			return nil, invalidInputf(0, nil, "symbol index %d out of range", sym)
		}
		return convertTo(reflect.ValueOf(s), want), nil

	case reflect.Bool:
		raw, err := dec.leaf(p, 1, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(raw != 0), want), nil

	case reflect.Int, reflect.Int64:
		raw, err := dec.leaf(p, 8, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(int64(raw)), want), nil
	case reflect.Int32:
		raw, err := dec.leaf(p, 4, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(int32(uint32(raw))), want), nil
	case reflect.Int16:
		raw, err := dec.leaf(p, 2, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(int16(uint16(raw))), want), nil
	case reflect.Int8:
		raw, err := dec.leaf(p, 1, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(int8(raw)), want), nil

	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		raw, err := dec.leaf(p, 8, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(raw), want), nil
	case reflect.Uint32:
		raw, err := dec.leaf(p, 4, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(uint32(raw)), want), nil
	case reflect.Uint16:
		raw, err := dec.leaf(p, 2, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(uint16(raw)), want), nil
	case reflect.Uint8:
		raw, err := dec.leaf(p, 1, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(uint8(raw)), want), nil

	case reflect.Float64:
		raw, err := dec.leaf(p, 8, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(math.Float64frombits(raw)), want), nil
	case reflect.Float32:
		raw, err := dec.leaf(p, 4, key)
		if err != nil {
			return nil, err
		}
		return convertTo(reflect.ValueOf(math.Float32frombits(uint32(raw))), want), nil

	case reflect.Slice:
		if want.Elem().Kind() == reflect.Uint8 {
			b, ok := p.(primBytes)
			if !ok {
				return nil, &TypeMismatchError{key, "bytes", p.describe()}
			}
			out := reflect.MakeSlice(want, len(b), len(b))
			reflect.Copy(out, reflect.ValueOf([]byte(b)))
			return out.Interface(), nil
		}
		list, ok := p.(primList)
		if !ok {
			return nil, &TypeMismatchError{key, "list", p.describe()}
		}
		out := reflect.MakeSlice(want, 0, len(list))
		for _, el := range list {
			v, err := dec.decodeAs(el, want.Elem(), key)
			if err != nil {
				return nil, err
			}
			out = reflect.Append(out, reflect.ValueOf(v))
		}
		return out.Interface(), nil

	case reflect.Map:
		table, ok := p.(primTable)
		if !ok {
			return nil, &TypeMismatchError{key, "table", p.describe()}
		}
		out := reflect.MakeMapWithSize(want, len(table))
		for _, pp := range table {
			k, err := dec.decodeAs(pp.key, want.Key(), key)
			if err != nil {
				return nil, err
			}
			v, err := dec.decodeAs(pp.val, want.Elem(), key)
			if err != nil {
				return nil, err
			}
			out.SetMapIndex(reflect.ValueOf(k), reflect.ValueOf(v))
		}
		return out.Interface(), nil

	case reflect.Interface:
		if want.NumMethod() == 0 {
			return dec.anyFrom(p, key)
		}
		return dec.decodeRegistered(p, want, key)

	default:
		return dec.decodeRegistered(p, want, key)
	}
}

func (dec *Decoder) decodeRegistered(p primitive, want reflect.Type, key string) (any, error) {
	v, err := dec.valueFrom(p, noStash, key)
	if err != nil {
		return nil, err
	}
	rvt := reflect.TypeOf(v)
	if !rvt.AssignableTo(want) {
		return nil, &TypeMismatchError{key, want.String(), rvt.String()}
	}
	return v, nil
}

// anyFrom reconstructs a primitive without a requested type: bytes, string,
// []any, []Pair[any,any], or a registered-type instance.
func (dec *Decoder) anyFrom(p primitive, key string) (any, error) {
	switch pp := p.(type) {
	case primBytes:
		return append([]byte(nil), pp...), nil
	case primSymbol:
		s, ok := dec.syms.resolve(symIndex(pp))
		if !ok {
			return nil, invalidInputf(0, nil, "symbol index %d out of range", pp)
		}
		return s, nil
	case primList:
		out := make([]any, 0, len(pp))
		for _, el := range pp {
			v, err := dec.anyFrom(el, key)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case primTable:
		out := make([]Pair[any, any], 0, len(pp))
		for _, pair := range pp {
			k, err := dec.anyFrom(pair.key, key)
			if err != nil {
				return nil, err
			}
			v, err := dec.anyFrom(pair.val, key)
			if err != nil {
				return nil, err
			}
			out = append(out, Pair[any, any]{k, v})
		}
		return out, nil
	default:
		return dec.valueFrom(p, noStash, key)
	}
}

func (dec *Decoder) leaf(p primitive, width int, key string) (uint64, error) {
	b, ok := p.(primBytes)
	if !ok {
		return 0, &TypeMismatchError{key, fmt.Sprintf("%d-byte leaf", width), p.describe()}
	}
	if len(b) != width {
		return 0, typeMismatchf(key, fmt.Sprintf("%d-byte leaf", width), "%d-byte leaf", len(b))
	}
	var full [8]byte
	copy(full[:], b)
	return binary.LittleEndian.Uint64(full[:]), nil
}

func convertTo(rv reflect.Value, want reflect.Type) any {
	if rv.Type() == want {
		return rv.Interface()
	}
	return rv.Convert(want).Interface()
}
