package arcstore

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/keyarc"
)

type note struct {
	Title string
	Body  string
}

func init() {
	keyarc.RegisterValue(note{}, "arcstore_test.note")
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archives.db"), 0o600)
	if err != nil {
		t.Fatalf("** Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)

	enc := keyarc.NewEncoder()
	enc.Encode(note{Title: "hello", Body: "world"}, "note")
	if err := s.Save("first", enc); err != nil {
		t.Fatalf("** Save: %v", err)
	}

	dec, err := s.Load("first")
	if err != nil {
		t.Fatalf("** Load: %v", err)
	}
	got, err := keyarc.Decode[note](dec, "note")
	if err != nil {
		t.Fatalf("** Decode: %v", err)
	}
	if got.Title != "hello" || got.Body != "world" {
		t.Errorf("** loaded %+v", got)
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("** got %v, wanted ErrNotFound", err)
	}
}

func TestLoadDetectsCorruption(t *testing.T) {
	s := openTestStore(t)
	enc := keyarc.NewEncoder()
	enc.Encode(note{Title: "x"}, "note")
	if err := s.Save("damaged", enc); err != nil {
		t.Fatalf("** Save: %v", err)
	}

	// Flip one byte of the stored blob behind the checksum's back.
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(archivesBucket)
		blob := append([]byte(nil), b.Get([]byte("damaged"))...)
		blob[len(blob)-1] ^= 0xFF
		return b.Put([]byte("damaged"), blob)
	})
	if err != nil {
		t.Fatalf("** corrupting blob: %v", err)
	}

	if _, err := s.Load("damaged"); !errors.Is(err, ErrChecksum) {
		t.Errorf("** got %v, wanted ErrChecksum", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTestStore(t)
	for _, name := range []string{"beta", "alpha"} {
		enc := keyarc.NewEncoder()
		enc.Encode(note{Title: name}, "note")
		if err := s.Save(name, enc); err != nil {
			t.Fatalf("** Save %s: %v", name, err)
		}
	}

	names, err := s.List()
	if err != nil {
		t.Fatalf("** List: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "beta"}) {
		t.Errorf("** List = %v, wanted [alpha beta]", names)
	}

	if err := s.Delete("alpha"); err != nil {
		t.Fatalf("** Delete: %v", err)
	}
	names, _ = s.List()
	if !reflect.DeepEqual(names, []string{"beta"}) {
		t.Errorf("** List after delete = %v", names)
	}
	if err := s.Delete("alpha"); err != nil {
		t.Errorf("** deleting a missing archive errored: %v", err)
	}
}
