package keyarc

import (
	"encoding/hex"
	"reflect"
	"testing"
)

func TestPrimitiveEncoding(t *testing.T) {
	fields := newFieldMap()
	fields.put(2, primBytes{1})

	tests := []struct {
		name     string
		prim     primitive
		expected string
	}{
		{"bytes", primBytes{0xDE, 0xAD}, "010200000000000000dead"},
		{"empty bytes", primBytes{}, "010000000000000000"},
		{"symbol", primSymbol(3), "020300000000000000"},
		{"reference", primReference(1), "040100000000000000"},
		{"list", primList{primSymbol(0), primBytes{0x7F}}, "0502000000000000000200000000000000000101000000000000007f"},
		{"table", primTable{{primSymbol(1), primReference(0)}}, "0601000000000000000201000000000000000400000000000000"},
		{"value", &primValue{typeSym: 5, fields: fields}, "03050000000000000001000000000000000200000000000000010100000000000000" + "01"},
	}
	for _, tt := range tests {
		encoded := tt.prim.appendTo(nil)
		if got := hex.EncodeToString(encoded); got != tt.expected {
			t.Errorf("** %s: encoded %s, wanted %s", tt.name, got, tt.expected)
			continue
		}
		r := &byteReader{data: encoded}
		decoded, err := parsePrimitive(r)
		if err != nil {
			t.Errorf("** %s: parse failed: %v", tt.name, err)
			continue
		}
		if r.remaining() != 0 {
			t.Errorf("** %s: %d bytes left after parse", tt.name, r.remaining())
		}
		reencoded := decoded.appendTo(nil)
		if !reflect.DeepEqual(encoded, reencoded) {
			t.Errorf("** %s: re-encode changed bytes: %x vs %x", tt.name, reencoded, encoded)
		}
	}
}

func TestPrimitiveParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad tag", "07"},
		{"bytes short length", "0102000000000000"},
		{"bytes short payload", "010200000000000000de"},
		{"symbol short index", "0203000000"},
		{"list short element", "05010000000000000002"},
		{"list count too large", "05ffffffffffffffff"},
		{"value duplicate field", "0300000000000000000200000000000000010000000000000001010000000000000000010000000000000001010000000000000000"},
	}
	for _, tt := range tests {
		r := &byteReader{data: must(hex.DecodeString(tt.input))}
		_, err := parsePrimitive(r)
		if err == nil {
			t.Errorf("** %s: parse of %q unexpectedly succeeded", tt.name, tt.input)
			continue
		}
		if _, ok := err.(*InvalidInputError); !ok {
			t.Errorf("** %s: got %T (%v), wanted *InvalidInputError", tt.name, err, err)
		}
	}
}

func TestFieldMapRejectsDuplicates(t *testing.T) {
	fm := newFieldMap()
	if !fm.put(1, primSymbol(0)) {
		t.Fatalf("** first put failed")
	}
	if fm.put(1, primSymbol(2)) {
		t.Errorf("** duplicate put succeeded")
	}
	if p, ok := fm.get(1); !ok || p.(primSymbol) != 0 {
		t.Errorf("** duplicate put overwrote the original entry")
	}
}
