// Package memstore provides a pure in-memory kv.Store, standing in for the
// persistent data store at the bottom of a session chain in tests and in any
// caller that doesn't need durability. It is adapted from
// storage/kv.FakeMap: a github.com/emirpasic/gods treemap keeps keys in
// lexical order so Begin/End/LowerBound/UpperBound need no extra sort step.
package memstore

import (
	"github.com/jrife/session/storage/kv"
)

var _ kv.Store = (*Store)(nil)

// Store is an in-memory kv.Store. It never tombstones anything, so
// IsDeleted always reports false: nothing "above" it needs reminding that a
// key is gone once Erase has removed it.
type Store struct {
	cache *kv.Cache
}

// New returns an empty Store.
func New() *Store {
	return &Store{cache: kv.NewCache()}
}

// Read implements kv.Store.
func (s *Store) Read(key kv.Key) (kv.Value, error) {
	return s.cache.Read(key), nil
}

// Contains implements kv.Store.
func (s *Store) Contains(key kv.Key) (bool, error) {
	return s.cache.Contains(key), nil
}

// IsDeleted implements kv.Store. The bottom store has no tombstones.
func (s *Store) IsDeleted(key kv.Key) (bool, error) {
	return false, nil
}

// Write implements kv.Store.
func (s *Store) Write(key kv.Key, value kv.Value) error {
	s.cache.Write(key, value)

	return nil
}

// Erase implements kv.Store.
func (s *Store) Erase(key kv.Key) error {
	s.cache.Erase(key)

	return nil
}

// Find implements kv.Store.
func (s *Store) Find(key kv.Key) kv.Cursor {
	return s.cache.Find(key)
}

// Begin implements kv.Store.
func (s *Store) Begin() kv.Cursor {
	return s.cache.Begin()
}

// End implements kv.Store.
func (s *Store) End() kv.Cursor {
	return s.cache.End()
}

// LowerBound implements kv.Store.
func (s *Store) LowerBound(key kv.Key) kv.Cursor {
	return s.cache.LowerBound(key)
}

// UpperBound implements kv.Store.
func (s *Store) UpperBound(key kv.Key) kv.Cursor {
	return s.cache.UpperBound(key)
}

// WriteTo implements kv.Store.
func (s *Store) WriteTo(other kv.Store, keys []kv.Key) error {
	return s.cache.WriteTo(other, keys)
}

// Len returns the number of keys currently held.
func (s *Store) Len() int {
	return s.cache.Len()
}
