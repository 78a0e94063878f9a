package session

import "github.com/jrife/session/storage/kv"

// bounds returns the immediate predecessor and successor of key across the
// composed view (this session's cache, its tombstones, and the parent
// chain), without going back through the public Find/LowerBound API. It
// drives two throwaway iterator-factory constructions with primeOnly set,
// so any key they discover is only interned into the iterator cache, not
// handed a fresh neighbor probe of its own — that's what keeps
// updateIteratorCache's call into bounds from recursing forever.
//
// This is the one place in the package that intentionally keeps the
// original source's odd choice of always stepping forward — never
// backward — when the predecessor probe's first candidate turns out to be
// tombstoned. See predecessor below.
func (s *Session) bounds(key kv.Key) (lower, upper kv.Key, err error) {
	lowerCur, err := s.makeIterator(func(ds ordered) kv.Cursor { return predecessor(ds, key) }, less, advance, true)
	if err != nil {
		return kv.KeyInvalid, kv.KeyInvalid, err
	}

	upperCur, err := s.makeIterator(func(ds ordered) kv.Cursor { return ds.UpperBound(key) }, less, advance, true)
	if err != nil {
		return kv.KeyInvalid, kv.KeyInvalid, err
	}

	lower, upper = kv.KeyInvalid, kv.KeyInvalid

	if !lowerCur.AtEnd() {
		lower = lowerCur.Key()
	}

	if !upperCur.AtEnd() {
		upper = upperCur.Key()
	}

	return lower, upper, nil
}

// predecessor positions at the entry immediately before key in ds: it seeks
// to LowerBound(key) and steps back once, unless that landed exactly on the
// first entry or past the last one, in which case there is no predecessor
// in ds and it reports End. Note this does not fall back to "the last key
// in ds" when LowerBound(key) is already End — ds having no key >= key
// means this probe alone reports no predecessor, leaving it to whichever of
// the parent/cache probes does have one.
func predecessor(ds ordered, key kv.Key) kv.Cursor {
	c := ds.LowerBound(key)
	if err := c.Error(); err != nil {
		return c
	}

	if !c.Key().Valid() {
		return ds.End()
	}

	begin := ds.Begin()
	if begin.Key().Valid() && kv.Compare(c.Key(), begin.Key()) == 0 {
		return ds.End()
	}

	c.Prev()

	return c
}
