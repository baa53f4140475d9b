package keyarc

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

func TestDump(t *testing.T) {
	alice := &Person{Name: "Alice"}
	enc := NewEncoder()
	enc.Encode(alice, "root")
	enc.Encode(alice, "again")

	s := enc.Dump(DumpAll)
	for _, want := range []string{"Person", `"Alice"`, "&0", `"root"`} {
		if !strings.Contains(s, want) {
			t.Errorf("** dump is missing %s:\n%s", want, s)
		}
	}
}

func TestExportJSON(t *testing.T) {
	enc := NewEncoder()
	enc.Encode(Dog{Name: "Fido", IsCute: true}, "currentDog")

	raw := must(enc.Export(JSON))
	var doc map[string]any
	ensure(json.Unmarshal(raw, &doc))

	roots, ok := doc["$roots"].(map[string]any)
	if !ok {
		t.Fatalf("** export has no $roots map: %s", raw)
	}
	dog, ok := roots["currentDog"].(map[string]any)
	if !ok || dog["$type"] != "Dog" || dog["name"] != "Fido" {
		t.Errorf("** exported dog = %v", roots["currentDog"])
	}
}

func TestExportMsgPack(t *testing.T) {
	alice := &Person{Name: "Alice"}
	enc := NewEncoder()
	enc.Encode(alice, "root")

	raw := must(enc.Export(MsgPack))
	var doc map[string]any
	ensure(msgpack.Unmarshal(raw, &doc))

	if doc["$version"] == nil || doc["$objects"] == nil {
		t.Fatalf("** export missing header keys: %v", doc)
	}
	roots, ok := doc["$roots"].(map[string]any)
	if !ok {
		t.Fatalf("** export has no $roots map")
	}
	ref, ok := roots["root"].(map[string]any)
	if !ok || ref["$ref"] == nil {
		t.Errorf("** root should export as a $ref: %v", roots["root"])
	}
}
