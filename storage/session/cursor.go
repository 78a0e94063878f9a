package session

import "github.com/jrife/session/storage/kv"

var _ kv.Cursor = (*Cursor)(nil)

// Cursor is a bidirectional, cyclical iterator over a session's composed
// view (C8). Unlike a plain kv.Cursor, running off either end wraps back
// around to the other rather than staying stuck: Next past the last entry
// lands on the first, and Prev before the first lands on the last. Every
// dereference re-reads through the owning session, so a cursor parked on a
// key always reflects whatever that session's composed view currently says
// for it, even if it was written or erased after the cursor was positioned.
//
// Comparing cursors from two different sessions is meaningless and is not
// guarded against — only compare cursors drawn from the same session.
type Cursor struct {
	session *Session
	pos     *entryCursor
	err     error
}

// Next advances the cursor, wrapping from End to the first entry.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}

	if err := c.session.moveNext(c.pos); err != nil {
		c.err = err

		return false
	}

	return !c.pos.atEnd()
}

// Prev retreats the cursor, wrapping from before-the-first entry to the
// last one.
func (c *Cursor) Prev() bool {
	if c.err != nil {
		return false
	}

	if err := c.session.movePrevious(c.pos); err != nil {
		c.err = err

		return false
	}

	return !c.pos.atEnd()
}

// AtEnd reports whether the cursor is currently positioned at End.
func (c *Cursor) AtEnd() bool {
	return c.pos.atEnd()
}

// Key returns the key at the current position, or KeyInvalid at End.
func (c *Cursor) Key() kv.Key {
	if c.pos.atEnd() {
		return kv.KeyInvalid
	}

	return c.pos.key()
}

// Value re-reads the current key through the owning session and returns
// whatever the composed view holds for it right now.
func (c *Cursor) Value() kv.Value {
	if c.pos.atEnd() {
		return kv.ValueInvalid
	}

	v, err := c.session.Read(c.pos.key())
	if err != nil {
		c.err = err

		return kv.ValueInvalid
	}

	return v
}

// Deleted reports whether the current position is a tombstone.
func (c *Cursor) Deleted() bool {
	if c.pos.atEnd() {
		return false
	}

	return c.pos.state().deleted
}

// Error returns any error encountered while positioning the cursor.
func (c *Cursor) Error() error {
	return c.err
}

// Equal reports whether c and other name the same position: both at End, or
// the same key. A cursor at End is never equal to one that isn't.
func (c *Cursor) Equal(other *Cursor) bool {
	if c.pos.atEnd() || other.pos.atEnd() {
		return c.pos.atEnd() == other.pos.atEnd()
	}

	return kv.Compare(c.Key(), other.Key()) == 0
}

// moveNext implements the forward half of C8's move/rollover state machine.
// Calling Next directly on a cursor already at End wraps straight to the
// first entry; this is an explicit guard the original source leaves
// implicit (there, incrementing an end iterator without first rolling over
// is undefined behavior).
func (s *Session) moveNext(pos *entryCursor) error {
	if pos.atEnd() {
		*pos = *s.itcache.begin()

		return nil
	}

	for {
		st := pos.state()
		if !st.nextInCache {
			if err := s.updateIteratorCache(pos.key(), iterCacheParams{recalculate: true}); err != nil {
				return err
			}

			st = pos.state()
			if !st.nextInCache {
				*pos = *s.itcache.end()

				break
			}
		}

		pos.next()

		if pos.atEnd() || !pos.state().deleted {
			break
		}
	}

	// Rollover is unconditional: whichever exit path above was taken, a
	// cursor that ends up at End wraps to the first entry rather than
	// staying stranded there.
	if pos.atEnd() {
		*pos = *s.itcache.begin()
	}

	return nil
}

// movePrevious implements the backward half of C8's move/rollover state
// machine. Unlike moveNext, the rollover check here comes first: if the
// cursor is sitting at the first entry, it jumps to End before the
// skip-tombstone loop runs, exactly mirroring the original source's
// ordering. The loop itself supplies the one and only decrement back from
// End to the last entry — the rollover must not also decrement, or the
// cursor lands one entry short of the last.
func (s *Session) movePrevious(pos *entryCursor) error {
	begin := s.itcache.begin()

	if !pos.atEnd() && !begin.atEnd() && kv.Compare(pos.key(), begin.key()) == 0 {
		*pos = *s.itcache.end()
	}

	for {
		atEnd := pos.atEnd()

		if !atEnd && !pos.state().prevInCache {
			if err := s.updateIteratorCache(pos.key(), iterCacheParams{recalculate: true}); err != nil {
				return err
			}

			if !pos.state().prevInCache {
				*pos = *s.itcache.end()

				return nil
			}
		}

		pos.prev()

		if pos.atEnd() || !pos.state().deleted {
			break
		}
	}

	return nil
}
