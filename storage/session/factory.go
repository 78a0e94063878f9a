package session

import "github.com/jrife/session/storage/kv"

// ordered is the subset of kv.Store (also satisfied by *kv.Cache) that the
// iterator factory needs from each of a session's two candidate sources:
// the parent chain and the local cache.
type ordered interface {
	Find(key kv.Key) kv.Cursor
	Begin() kv.Cursor
	End() kv.Cursor
	LowerBound(key kv.Key) kv.Cursor
	UpperBound(key kv.Key) kv.Cursor
}

func less(a, b kv.Key) bool { return kv.Compare(a, b) < 0 }

func greater(a, b kv.Key) bool { return kv.Compare(a, b) > 0 }

// preferValid is the comparator used by Find: a non-invalid candidate always
// beats an invalid one, whichever side it comes from. The original C++
// comparator here had a documented bug that could let an invalid left-hand
// candidate win over a valid right-hand one; this is the corrected version.
func preferValid(local, parent kv.Key) bool { return local.Valid() }

func advance(c kv.Cursor) bool { return c.Next() }

// makeIterator is the one routine every read-only positioning operation goes
// through (C7): Find, Begin, End, LowerBound, UpperBound, and bounds' two
// internal probes. It asks predicate to produce a starting cursor into both
// the parent and the local cache, walks each forward with move skipping any
// key this session considers deleted, then picks a winner between the two
// survivors with cmp before interning it into the iterator cache. A side with
// no survivor never wins over a side that has one.
//
// primeOnly is threaded straight through to updateIteratorCache: bounds()
// passes true so that its two throwaway probes only intern the keys they
// find, rather than each triggering a fresh neighbor lookup of their own.
func (s *Session) makeIterator(predicate func(ordered) kv.Cursor, cmp func(a, b kv.Key) bool, move func(kv.Cursor) bool, primeOnly bool) (*Cursor, error) {
	cur := &Cursor{session: s, pos: s.itcache.end()}

	parentKey := kv.KeyInvalid

	if s.parent != nil {
		raw := predicate(s.parent)
		if err := raw.Error(); err != nil {
			return nil, err
		}

		k, err := s.scanSurvivor(raw, move)
		if err != nil {
			return nil, err
		}

		parentKey = k
	}

	rawLocal := predicate(s.cache)

	localKey, err := s.scanSurvivor(rawLocal, move)
	if err != nil {
		return nil, err
	}

	chosen := localKey
	if parentKey.Valid() {
		if localKey.Valid() && cmp(localKey, parentKey) {
			chosen = localKey
		} else {
			chosen = parentKey
		}
	}

	if chosen.Valid() {
		if err := s.updateIteratorCache(chosen, iterCacheParams{primeOnly: primeOnly, recalculate: true}); err != nil {
			return nil, err
		}

		pos := s.itcache.at(chosen)
		if st := pos.state(); st != nil && st.deleted {
			pos = s.itcache.end()
		}

		cur.pos = pos
	}

	return cur, nil
}

// scanSurvivor walks cur forward via move, skipping any key this session
// considers deleted, until it finds one that isn't, runs off the end, or
// wraps back around to (or before) the key it started at. This is the
// find_first_not loop from the original source.
func (s *Session) scanSurvivor(cur kv.Cursor, move func(kv.Cursor) bool) (kv.Key, error) {
	if err := cur.Error(); err != nil {
		return kv.KeyInvalid, err
	}

	key := cur.Key()
	if !key.Valid() {
		return kv.KeyInvalid, nil
	}

	beginning := key

	for {
		deleted, err := s.IsDeleted(key)
		if err != nil {
			return kv.KeyInvalid, err
		}

		if !deleted {
			return key, nil
		}

		if !move(cur) {
			return kv.KeyInvalid, nil
		}

		if err := cur.Error(); err != nil {
			return kv.KeyInvalid, err
		}

		key = cur.Key()
		if !key.Valid() {
			return kv.KeyInvalid, nil
		}

		if kv.Compare(key, beginning) <= 0 {
			// Wrapped back around without finding a survivor.
			return kv.KeyInvalid, nil
		}
	}
}

// Find implements kv.Store.
func (s *Session) Find(key kv.Key) kv.Cursor {
	cur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.Find(key) }, preferValid, advance, false)
	if err != nil {
		return &errCursor{err: err}
	}

	return cur
}

// Begin implements kv.Store.
func (s *Session) Begin() kv.Cursor {
	cur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.Begin() }, less, advance, false)
	if err != nil {
		return &errCursor{err: err}
	}

	return cur
}

// End implements kv.Store.
func (s *Session) End() kv.Cursor {
	cur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.End() }, greater, advance, false)
	if err != nil {
		return &errCursor{err: err}
	}

	return cur
}

// LowerBound implements kv.Store.
func (s *Session) LowerBound(key kv.Key) kv.Cursor {
	cur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.LowerBound(key) }, less, advance, false)
	if err != nil {
		return &errCursor{err: err}
	}

	return cur
}

// UpperBound implements kv.Store.
func (s *Session) UpperBound(key kv.Key) kv.Cursor {
	cur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.UpperBound(key) }, less, advance, false)
	if err != nil {
		return &errCursor{err: err}
	}

	return cur
}

// errCursor is an always-at-End cursor carrying a positioning error.
type errCursor struct {
	err error
}

func (c *errCursor) Next() bool      { return false }
func (c *errCursor) Prev() bool      { return false }
func (c *errCursor) Key() kv.Key     { return kv.KeyInvalid }
func (c *errCursor) Value() kv.Value { return kv.ValueInvalid }
func (c *errCursor) Deleted() bool   { return false }
func (c *errCursor) Error() error    { return c.err }
