package session

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/jrife/session/storage/kv"
)

func byKey(a, b interface{}) int {
	return kv.Compare(a.(kv.Key), b.(kv.Key))
}

// iterState is what a session's iterator cache knows about one key: whether
// its immediate successor and predecessor in the composed ordering are
// themselves already interned here, and whether this key is a tombstone. A
// false flag is "unknown, not yet probed" — it is never read as "no such
// neighbor". Only bounds() resolves an unknown flag to something concrete.
type iterState struct {
	nextInCache bool
	prevInCache bool
	deleted     bool
}

// iterCacheParams controls how updateIteratorCache refreshes an entry.
type iterCacheParams struct {
	// primeOnly interns the key with a zero-value iterState and returns
	// immediately, without probing its neighbors. Used by bounds() itself so
	// that the probe it drives doesn't recurse back into a full neighbor
	// lookup.
	primeOnly bool
	// recalculate forces a neighbor probe even if both flags already read
	// true.
	recalculate bool
	// overwrite, when true, sets the deleted flag to markDeleted.
	overwrite   bool
	markDeleted bool
}

// iterCache is the ordered key -> *iterState map backing a session's
// iterator cache (C4). It is intentionally not the same type as kv.Cache:
// its values are mutated in place through the pointer every lookup returns,
// so a cursor holding a reference into it observes later updates from other
// operations on the same session.
type iterCache struct {
	m *treemap.Map
}

func newIterCache() *iterCache {
	return &iterCache{m: treemap.NewWith(byKey)}
}

// ensure returns the iterState for key, interning a zero-value one if this
// is the first time key has been seen.
func (c *iterCache) ensure(key kv.Key) *iterState {
	if v, found := c.m.Get(key); found {
		return v.(*iterState)
	}

	st := &iterState{}
	c.m.Put(key, st)

	return st
}

func (c *iterCache) clear() {
	c.m.Clear()
}

func (c *iterCache) len() int {
	return c.m.Size()
}

// begin returns a position at the smallest interned key.
func (c *iterCache) begin() *entryCursor {
	e := &entryCursor{it: c.m.Iterator()}
	e.it.Begin()
	e.ok = e.it.Next()

	return e
}

// end returns the one-past-the-end position.
func (c *iterCache) end() *entryCursor {
	e := &entryCursor{it: c.m.Iterator()}
	e.it.End()

	return e
}

// at returns a position at key, which the caller must already have interned
// via ensure. If key somehow isn't present this returns end.
func (c *iterCache) at(key kv.Key) *entryCursor {
	e := &entryCursor{it: c.m.Iterator()}
	e.it.Begin()

	for e.it.Next() {
		if kv.Compare(e.it.Key().(kv.Key), key) == 0 {
			e.ok = true

			return e
		}
	}

	e.ok = false

	return e
}

// entryCursor is a raw position into an iterCache's backing tree: just a
// key and its *iterState, with no notion of tombstone-skipping or
// wraparound. Session's public Cursor (C8) is built on top of this.
type entryCursor struct {
	it treemap.Iterator
	ok bool
}

func (e *entryCursor) next() bool {
	e.ok = e.it.Next()

	return e.ok
}

func (e *entryCursor) prev() bool {
	e.ok = e.it.Prev()

	return e.ok
}

func (e *entryCursor) atEnd() bool {
	return !e.ok
}

func (e *entryCursor) key() kv.Key {
	if !e.ok {
		return kv.KeyInvalid
	}

	return e.it.Key().(kv.Key)
}

func (e *entryCursor) state() *iterState {
	if !e.ok {
		return nil
	}

	return e.it.Value().(*iterState)
}
