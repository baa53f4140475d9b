// Package arcstore persists named archives in a Bolt database file. Each
// blob is prefixed with an xxhash64 checksum that is verified on load, so a
// torn write surfaces as ErrChecksum instead of a confusing parse error
// deeper in the codec.
package arcstore

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"go.etcd.io/bbolt"

	"github.com/andreyvit/keyarc"
)

var archivesBucket = []byte("archives")

var (
	ErrNotFound = errors.New("archive not found")
	ErrChecksum = errors.New("archive checksum mismatch")
)

type Store struct {
	bdb *bbolt.DB
}

func Open(path string, mode os.FileMode) (*Store, error) {
	bdb, err := bbolt.Open(path, mode, nil)
	if err != nil {
		return nil, err
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(archivesBucket)
		return err
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}
	return &Store{bdb: bdb}, nil
}

func (s *Store) Close() error {
	return s.bdb.Close()
}

// Save serializes enc and stores it under name, replacing any previous
// archive with that name.
func (s *Store) Save(name string, enc *keyarc.Encoder) error {
	return s.SaveRaw(name, enc.Serialize())
}

// SaveRaw stores already-serialized archive bytes under name.
func (s *Store) SaveRaw(name string, data []byte) error {
	blob := make([]byte, 8+len(data))
	binary.LittleEndian.PutUint64(blob, xxhash.Sum64(data))
	copy(blob[8:], data)
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(archivesBucket).Put([]byte(name), blob)
	})
}

// Load fetches the archive stored under name, verifies its checksum and
// parses it into a Decoder.
func (s *Store) Load(name string) (*keyarc.Decoder, error) {
	data, err := s.LoadRaw(name)
	if err != nil {
		return nil, err
	}
	return keyarc.NewDecoder(data)
}

// LoadRaw fetches and checksum-verifies the archive bytes stored under name.
func (s *Store) LoadRaw(name string) ([]byte, error) {
	var data []byte
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		blob := tx.Bucket(archivesBucket).Get([]byte(name))
		if blob == nil {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		if len(blob) < 8 {
			return fmt.Errorf("%w: %q", ErrChecksum, name)
		}
		if xxhash.Sum64(blob[8:]) != binary.LittleEndian.Uint64(blob) {
			return fmt.Errorf("%w: %q", ErrChecksum, name)
		}
		data = append([]byte(nil), blob[8:]...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// List returns the stored archive names in lexicographic order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(archivesBucket).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Delete removes the archive stored under name. Deleting a missing name is
// not an error.
func (s *Store) Delete(name string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(archivesBucket).Delete([]byte(name))
	})
}
