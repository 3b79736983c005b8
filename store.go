package gbwt

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
)

// Store keeps a collection of named serialized indexes, together with
// their metadata documents, in a single Bolt file.
type Store struct {
	bdb *bbolt.DB
}

var (
	indexesBucket  = []byte("indexes")
	metadataBucket = []byte("metadata")
)

// ErrNotFound is returned when the store holds nothing under a name.
var ErrNotFound = fmt.Errorf("not found in store")

// OpenStore opens or creates a collection file at path.
func OpenStore(path string) (*Store, error) {
	bdb, err := bbolt.Open(path, 0o644, nil)
	if err != nil {
		return nil, err
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(indexesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metadataBucket)
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

// Save serializes the index under the given name, replacing any previous
// one.
func (s *Store) Save(name string, g *GBWT) error {
	var buf bytes.Buffer
	if err := g.Serialize(&buf); err != nil {
		return err
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexesBucket).Put([]byte(name), buf.Bytes())
	})
}

// Open loads the named index.
func (s *Store) Open(name string) (*GBWT, error) {
	var g *GBWT
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(indexesBucket).Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("gbwt: index %q: %w", name, ErrNotFound)
		}
		g = New()
		return g.Load(bytes.NewReader(raw))
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

// List returns the names of the stored indexes in key order.
func (s *Store) List() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexesBucket).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return names, nil
}

// Delete removes the named index and its metadata, if present.
func (s *Store) Delete(name string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(indexesBucket).Delete([]byte(name)); err != nil {
			return err
		}
		return tx.Bucket(metadataBucket).Delete([]byte(name))
	})
}

// SaveMetadata stores the metadata document for the named index.
func (s *Store) SaveMetadata(name string, md *Metadata) error {
	raw, err := encodeMetadata(md)
	if err != nil {
		return err
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metadataBucket).Put([]byte(name), raw)
	})
}

// Metadata loads the metadata document for the named index.
func (s *Store) Metadata(name string) (*Metadata, error) {
	var md *Metadata
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(metadataBucket).Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("gbwt: metadata for %q: %w", name, ErrNotFound)
		}
		var err error
		md, err = decodeMetadata(raw)
		return err
	})
	if err != nil {
		return nil, err
	}
	return md, nil
}
