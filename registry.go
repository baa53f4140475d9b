package keyarc

import (
	"fmt"
	"reflect"
)

// Encodable enumerates a value's fields into the given Encoder. Implement it
// together with Decodable to control archiving by hand; plain structs can
// skip both and get a reflection-derived walker at registration time.
type Encodable interface {
	EncodeFields(enc *Encoder)
}

// Decodable reconstructs a value's fields from the given Decoder.
type Decodable interface {
	DecodeFields(dec *Decoder) error
}

// Restorer is an optional hook for reference-kind types that participate in
// circular graphs. It runs after the instance has been constructed and
// entered into the decode memo, so self-references that could not resolve
// inside DecodeFields can be repaired here.
type Restorer interface {
	RestoreReferences(dec *Decoder) error
}

type typeRecord struct {
	name      string
	typ       reflect.Type // runtime type as registered: T or *T
	refKind   bool
	encode    func(enc *Encoder, v any)
	construct func(dec *Decoder) (any, error)
	restore   func(dec *Decoder, v any) error
}

// The registry is process-wide, populated by explicit registration before
// any archiving begins, and read-only afterwards. Registration is not
// synchronized: registering concurrently with archiving traffic is a usage
// error, not a guarded condition.
var registry = struct {
	byName map[string]*typeRecord
	byType map[reflect.Type]*typeRecord
}{
	byName: make(map[string]*typeRecord),
	byType: make(map[reflect.Type]*typeRecord),
}

var (
	encodableType = reflect.TypeOf((*Encodable)(nil)).Elem()
	decodableType = reflect.TypeOf((*Decodable)(nil)).Elem()
	restorerType  = reflect.TypeOf((*Restorer)(nil)).Elem()
)

// RegisterValue registers a value-kind type: instances have no shared
// identity and are archived inline wherever they occur. proto is a throwaway
// instance of the type (a struct or a pointer to one); name defaults to the
// struct type's name. Panics if the name or the type is already registered.
func RegisterValue(proto any, name string) {
	register(proto, name, false)
}

// RegisterReference registers a reference-kind type: instances have shared
// identity, are stored at most once in the object table, and may form
// circular graphs. proto must be a pointer to a struct.
func RegisterReference(proto any, name string) {
	register(proto, name, true)
}

// IsRegistered reports whether the runtime type of v has been registered.
func IsRegistered(v any) bool {
	return registry.byType[reflect.TypeOf(v)] != nil
}

func register(proto any, name string, refKind bool) {
	rt := reflect.TypeOf(proto)
	if rt == nil {
		panic("keyarc: cannot register nil")
	}
	structType := rt
	if rt.Kind() == reflect.Ptr {
		structType = rt.Elem()
	} else if refKind {
		panic(fmt.Errorf("keyarc: reference type %v must be registered via a pointer", rt))
	}
	if structType.Kind() != reflect.Struct {
		panic(fmt.Errorf("keyarc: %v is not a struct type", rt))
	}
	if name == "" {
		name = structType.Name()
		if name == "" {
			panic(fmt.Errorf("keyarc: anonymous type %v needs an explicit name", rt))
		}
	}
	if prev := registry.byName[name]; prev != nil {
		panic(fmt.Errorf("keyarc: name %q is already registered for %v, cannot register %v", name, prev.typ, rt))
	}
	if prev := registry.byType[rt]; prev != nil {
		panic(fmt.Errorf("keyarc: type %v is already registered as %q", rt, prev.name))
	}

	rec := &typeRecord{
		name:    name,
		typ:     rt,
		refKind: refKind,
	}

	ptrType := reflect.PointerTo(structType)
	hasEnc := rt.Implements(encodableType) || ptrType.Implements(encodableType)
	hasDec := rt.Implements(decodableType) || ptrType.Implements(decodableType)
	switch {
	case hasEnc && hasDec:
		rec.encode = encodeViaInterface(structType)
		rec.construct = constructViaInterface(structType, rt.Kind() == reflect.Ptr)
	case hasEnc != hasDec:
		panic(fmt.Errorf("keyarc: %v must implement both Encodable and Decodable, or neither", rt))
	default:
		walker := walkerForType(structType)
		rec.encode = walker.encode
		rec.construct = walker.construct(rt.Kind() == reflect.Ptr)
	}
	if refKind && ptrType.Implements(restorerType) {
		rec.restore = func(dec *Decoder, v any) error {
			return v.(Restorer).RestoreReferences(dec)
		}
	}

	registry.byName[name] = rec
	registry.byType[rt] = rec
}

func encodeViaInterface(structType reflect.Type) func(enc *Encoder, v any) {
	return func(enc *Encoder, v any) {
		if e, ok := v.(Encodable); ok {
			e.EncodeFields(enc)
			return
		}
		// EncodeFields has a pointer receiver and v is a bare struct;
		// copy it somewhere addressable.
		pv := reflect.New(structType)
		pv.Elem().Set(reflect.ValueOf(v))
		pv.Interface().(Encodable).EncodeFields(enc)
	}
}

func constructViaInterface(structType reflect.Type, asPtr bool) func(dec *Decoder) (any, error) {
	return func(dec *Decoder) (any, error) {
		pv := reflect.New(structType)
		if err := pv.Interface().(Decodable).DecodeFields(dec); err != nil {
			return nil, err
		}
		if asPtr {
			return pv.Interface(), nil
		}
		return pv.Elem().Interface(), nil
	}
}

func lookupByType(rt reflect.Type) *typeRecord {
	return registry.byType[rt]
}

func lookupByName(name string) *typeRecord {
	return registry.byName[name]
}
