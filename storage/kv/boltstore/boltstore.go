// Package boltstore is the durable variant of the persistent store that sits
// at the bottom of a session chain: a single go.etcd.io/bbolt bucket exposed
// through kv.Store. It is adapted from storage/kv/plugins/bbolt.go, trimmed
// down from that file's store/partition/bucket hierarchy to the flat
// key/value surface this layer's Parent contract needs.
package boltstore

import (
	"fmt"

	"github.com/jrife/session/storage/kv"
	"github.com/jrife/session/utils/uuid"
	bolt "go.etcd.io/bbolt"
)

var rootBucket = []byte{0}

var _ kv.Store = (*Store)(nil)

// Store is a kv.Store backed by a single bbolt file and bucket. It never
// tombstones anything, so IsDeleted always reports false.
type Store struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a bbolt-backed Store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0666, nil)
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %s", path, err.Error())
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(rootBucket)
		return err
	}); err != nil {
		db.Close()

		return nil, fmt.Errorf("could not ensure root bucket exists: %s", err.Error())
	}

	return &Store{db: db}, nil
}

// OpenTemp opens a Store in a fresh temp file. It's meant for tests that need
// a real durable store without plumbing a path through.
func OpenTemp() (*Store, error) {
	return Open(fmt.Sprintf("/tmp/session-bbolt-%s", uuid.MustUUID()))
}

// Close closes the underlying bbolt file.
func (s *Store) Close() error {
	return s.db.Close()
}

// Read implements kv.Store.
func (s *Store) Read(key kv.Key) (kv.Value, error) {
	var value kv.Value

	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(rootBucket).Get(key)
		if v == nil {
			return nil
		}

		value = make(kv.Value, len(v))
		copy(value, v)

		return nil
	})

	return value, err
}

// Contains implements kv.Store.
func (s *Store) Contains(key kv.Key) (bool, error) {
	value, err := s.Read(key)

	return value.Valid(), err
}

// IsDeleted implements kv.Store. bbolt has no concept of a tombstone: once a
// key is gone from the bucket it simply isn't there.
func (s *Store) IsDeleted(key kv.Key) (bool, error) {
	return false, nil
}

// Write implements kv.Store.
func (s *Store) Write(key kv.Key, value kv.Value) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Put(key, value)
	})
}

// Erase implements kv.Store.
func (s *Store) Erase(key kv.Key) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(rootBucket).Delete(key)
	})
}

// WriteTo implements kv.Store.
func (s *Store) WriteTo(other kv.Store, keys []kv.Key) error {
	for _, key := range keys {
		value, err := s.Read(key)
		if err != nil {
			return err
		}

		if !value.Valid() {
			continue
		}

		if err := other.Write(key, value); err != nil {
			return err
		}
	}

	return nil
}

// Find implements kv.Store.
func (s *Store) Find(key kv.Key) kv.Cursor {
	c, err := s.newCursor()
	if err != nil {
		return &errCursor{err: err}
	}

	k, v := c.cursor.Seek(key)
	c.positioned = k != nil && kv.Compare(k, key) == 0
	c.key, c.value = dup(k), dup(v)

	return c
}

// Begin implements kv.Store.
func (s *Store) Begin() kv.Cursor {
	c, err := s.newCursor()
	if err != nil {
		return &errCursor{err: err}
	}

	k, v := c.cursor.First()
	c.positioned = k != nil
	c.key, c.value = dup(k), dup(v)

	return c
}

// End implements kv.Store.
func (s *Store) End() kv.Cursor {
	c, err := s.newCursor()
	if err != nil {
		return &errCursor{err: err}
	}

	return c
}

// LowerBound implements kv.Store.
func (s *Store) LowerBound(key kv.Key) kv.Cursor {
	c, err := s.newCursor()
	if err != nil {
		return &errCursor{err: err}
	}

	k, v := c.cursor.Seek(key)
	c.positioned = k != nil
	c.key, c.value = dup(k), dup(v)

	return c
}

// UpperBound implements kv.Store.
func (s *Store) UpperBound(key kv.Key) kv.Cursor {
	c, err := s.newCursor()
	if err != nil {
		return &errCursor{err: err}
	}

	k, v := c.cursor.Seek(key)
	if k != nil && kv.Compare(k, key) == 0 {
		k, v = c.cursor.Next()
	}

	c.positioned = k != nil
	c.key, c.value = dup(k), dup(v)

	return c
}

func dup(b []byte) []byte {
	if b == nil {
		return nil
	}

	d := make([]byte, len(b))
	copy(d, b)

	return d
}

func (s *Store) newCursor() (*Cursor, error) {
	tx, err := s.db.Begin(false)
	if err != nil {
		return nil, fmt.Errorf("could not begin read transaction: %s", err.Error())
	}

	return &Cursor{tx: tx, cursor: tx.Bucket(rootBucket).Cursor()}, nil
}

var _ kv.Cursor = (*Cursor)(nil)

// Cursor is a bbolt-backed kv.Cursor. It holds its own read-only transaction
// open for its lifetime, so per the same-session precondition on cursors
// (see package session's design notes), it must be short-lived: don't keep
// one around across writes to the store it was opened from.
type Cursor struct {
	tx         *bolt.Tx
	cursor     *bolt.Cursor
	key, value []byte
	positioned bool
}

func (c *Cursor) Next() bool {
	if !c.positioned {
		return false
	}

	k, v := c.cursor.Next()
	c.positioned = k != nil
	c.key, c.value = dup(k), dup(v)

	return c.positioned
}

func (c *Cursor) Prev() bool {
	var k, v []byte
	if c.positioned {
		k, v = c.cursor.Prev()
	} else {
		k, v = c.cursor.Last()
	}

	c.positioned = k != nil
	c.key, c.value = dup(k), dup(v)

	return c.positioned
}

func (c *Cursor) Key() kv.Key {
	if !c.positioned {
		return kv.KeyInvalid
	}

	return c.key
}

func (c *Cursor) Value() kv.Value {
	if !c.positioned {
		return kv.ValueInvalid
	}

	return c.value
}

func (c *Cursor) Deleted() bool {
	return false
}

func (c *Cursor) Error() error {
	return nil
}

// errCursor is an always-at-End cursor that carries a positioning error
// (e.g. the bbolt file couldn't open a transaction).
type errCursor struct {
	err error
}

func (c *errCursor) Next() bool      { return false }
func (c *errCursor) Prev() bool      { return false }
func (c *errCursor) Key() kv.Key     { return kv.KeyInvalid }
func (c *errCursor) Value() kv.Value { return kv.ValueInvalid }
func (c *errCursor) Deleted() bool   { return false }
func (c *errCursor) Error() error    { return c.err }
