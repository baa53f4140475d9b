package keyarc

import (
	"reflect"
	"testing"
)

func TestReflectedStructRoundTrip(t *testing.T) {
	mark := Landmark{
		Title:  "Haystack Rock",
		Lat:    45.884,
		Lon:    -123.968,
		Tags:   []string{"coast", "monolith"},
		Rating: 5,
		Notes:  "not archived",
	}
	dec := must(NewDecoder(serialized(mark, "landmark")))
	got := must(Decode[Landmark](dec, "landmark"))

	want := mark
	want.Notes = ""
	if !reflect.DeepEqual(got, want) {
		t.Errorf("** decoded %+v, wanted %+v", got, want)
	}
}

func TestReflectedFieldKeysHonorTags(t *testing.T) {
	enc := NewEncoder()
	enc.Encode(Landmark{Title: "X", Rating: 3}, "landmark")

	if _, ok := enc.syms.lookup("stars"); !ok {
		t.Errorf("** tag rename not honored: no \"stars\" symbol")
	}
	if _, ok := enc.syms.lookup("Rating"); ok {
		t.Errorf("** renamed field still archived under its Go name")
	}
	if _, ok := enc.syms.lookup("Notes"); ok {
		t.Errorf("** skipped field was archived")
	}
}

func TestReflectedAbsentFieldDecodesToZero(t *testing.T) {
	// An archive written without a field decodes with that field zero,
	// mirroring optional-key semantics.
	enc := NewEncoder()
	sym := enc.syms.intern("Landmark")
	fields := newFieldMap()
	fields.put(enc.syms.intern("Title"), primSymbol(enc.syms.intern("Sparse")))
	enc.put("landmark", &primValue{typeSym: sym, fields: fields})

	dec := must(NewDecoder(enc.Serialize()))
	got := must(Decode[Landmark](dec, "landmark"))
	if got.Title != "Sparse" || got.Lat != 0 || got.Tags != nil {
		t.Errorf("** decoded %+v, wanted only Title set", got)
	}
}

func TestWalkerRejectsDuplicateKeys(t *testing.T) {
	type clash struct {
		A string
		B string `keyarc:"A"`
	}
	expectPanic(t, "two fields under key", func() {
		RegisterValue(clash{}, "keyarc_test.Clash")
	})
}
