package kv

import (
	"github.com/emirpasic/gods/maps/treemap"
)

func byComparator(a, b interface{}) int {
	return Compare(a.(Key), b.(Key))
}

// Cache is an ordered key/value map used to hold the pairs a session has
// written or read through from its parent. It is the one local collaborator
// every session owns outright: reads, writes, batch erases, and a
// write_to(other) bulk copy, plus enough ordering to drive a session's half
// of the layered iterator scan (see session.Session.makeIterator).
type Cache struct {
	m *treemap.Map
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{m: treemap.NewWith(byComparator)}
}

// Read returns the value stored for key, or ValueInvalid if key isn't held.
func (c *Cache) Read(key Key) Value {
	v, found := c.m.Get(key)
	if !found {
		return ValueInvalid
	}

	return v.(Value)
}

// Contains reports whether key is held in the cache.
func (c *Cache) Contains(key Key) bool {
	_, found := c.m.Get(key)

	return found
}

// Write stores value for key, overwriting any existing entry.
func (c *Cache) Write(key Key, value Value) {
	c.m.Put(key, value)
}

// Erase removes key from the cache. It has no effect if key isn't held.
func (c *Cache) Erase(key Key) {
	c.m.Remove(key)
}

// EraseKeys removes every key in keys from the cache.
func (c *Cache) EraseKeys(keys []Key) {
	for _, key := range keys {
		c.m.Remove(key)
	}
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.m.Clear()
}

// Len returns the number of pairs held in the cache.
func (c *Cache) Len() int {
	return c.m.Size()
}

// WriteTo copies the pairs held for keys into store. Keys this cache doesn't
// hold are silently skipped; callers that need to know which keys were
// missing should consult the cache directly with Contains first.
func (c *Cache) WriteTo(store Store, keys []Key) error {
	for _, key := range keys {
		v, found := c.m.Get(key)

		if !found {
			continue
		}

		if err := store.Write(key, v.(Value)); err != nil {
			return err
		}
	}

	return nil
}

// Range calls fn for every pair in the cache in ascending key order, stopping
// early if fn returns false.
func (c *Cache) Range(fn func(key Key, value Value) bool) {
	it := c.m.Iterator()

	for it.Next() {
		if !fn(it.Key().(Key), it.Value().(Value)) {
			return
		}
	}
}

// Begin returns a cursor at the smallest key in the cache.
func (c *Cache) Begin() Cursor {
	cur := &cacheCursor{it: c.m.Iterator()}
	cur.it.Begin()
	cur.ok = cur.it.Next()

	return cur
}

// End returns the one-past-the-end sentinel cursor.
func (c *Cache) End() Cursor {
	cur := &cacheCursor{it: c.m.Iterator()}
	cur.it.End()

	return cur
}

// Find returns a cursor at key, or at End if the cache doesn't hold it.
func (c *Cache) Find(key Key) Cursor {
	return c.scanTo(func(k Key) bool { return Compare(k, key) == 0 })
}

// LowerBound returns a cursor at the smallest key >= key.
func (c *Cache) LowerBound(key Key) Cursor {
	return c.scanTo(func(k Key) bool { return Compare(k, key) >= 0 })
}

// UpperBound returns a cursor at the smallest key > key.
func (c *Cache) UpperBound(key Key) Cursor {
	return c.scanTo(func(k Key) bool { return Compare(k, key) > 0 })
}

func (c *Cache) scanTo(match func(Key) bool) Cursor {
	cur := &cacheCursor{it: c.m.Iterator()}
	cur.it.Begin()

	for cur.it.Next() {
		if match(cur.it.Key().(Key)) {
			cur.ok = true

			return cur
		}
	}

	cur.ok = false

	return cur
}

// cacheCursor is a plain, non-cyclical ordered cursor over a Cache's current
// contents. It never reports a deleted position: the cache holds no
// tombstones of its own (see invariant 3 in package session).
type cacheCursor struct {
	it treemap.Iterator
	ok bool
}

func (c *cacheCursor) Next() bool {
	c.ok = c.it.Next()

	return c.ok
}

func (c *cacheCursor) Prev() bool {
	c.ok = c.it.Prev()

	return c.ok
}

func (c *cacheCursor) Key() Key {
	if !c.ok {
		return KeyInvalid
	}

	return c.it.Key().(Key)
}

func (c *cacheCursor) Value() Value {
	if !c.ok {
		return ValueInvalid
	}

	return c.it.Value().(Value)
}

func (c *cacheCursor) Deleted() bool {
	return false
}

func (c *cacheCursor) Error() error {
	return nil
}
