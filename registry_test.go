package keyarc

import (
	"testing"
)

type regDupA struct{ X int }
type regDupB struct{ X int }
type regHalf struct{ X int }

func (h *regHalf) EncodeFields(enc *Encoder) {}

func TestRegisterDuplicateNamePanics(t *testing.T) {
	RegisterValue(regDupA{}, "keyarc_test.DupName")
	expectPanic(t, "already registered", func() {
		RegisterValue(regDupB{}, "keyarc_test.DupName")
	})
}

func TestRegisterDuplicateTypePanics(t *testing.T) {
	expectPanic(t, "already registered", func() {
		RegisterValue(Dog{}, "keyarc_test.OtherDogName")
	})
}

func TestRegisterReferenceRequiresPointer(t *testing.T) {
	type notAPointer struct{ X int }
	expectPanic(t, "registered via a pointer", func() {
		RegisterReference(notAPointer{}, "keyarc_test.NotAPointer")
	})
}

func TestRegisterHalfImplementedPanics(t *testing.T) {
	expectPanic(t, "both Encodable and Decodable", func() {
		RegisterValue(regHalf{}, "keyarc_test.Half")
	})
}

func TestIsRegistered(t *testing.T) {
	if !IsRegistered(Dog{}) {
		t.Errorf("** Dog not registered")
	}
	if !IsRegistered(&Person{}) {
		t.Errorf("** *Person not registered")
	}
	if IsRegistered(Person{}) {
		t.Errorf("** bare Person reported registered; only *Person is")
	}
	type never struct{ X int }
	if IsRegistered(never{}) {
		t.Errorf("** unregistered type reported registered")
	}
}
