package kv

// Store is the capability set every node in a session chain exposes to its
// child: read/write/erase, tombstone visibility, and an ordered cursor
// factory. A session's parent is always a Store — either another session or
// the persistent store at the bottom of the chain. The bottom store has no
// tombstones of its own, so IsDeleted on it always reports false.
type Store interface {
	// Read returns the value visible for key, or ValueInvalid if there is none.
	Read(key Key) (Value, error)
	// Contains reports whether key has a visible value.
	Contains(key Key) (bool, error)
	// IsDeleted reports whether key is tombstoned at this level or, if this
	// level has not itself written key, anywhere in the parent chain beneath.
	// A store with no notion of deletion (the persistent store) always
	// answers false.
	IsDeleted(key Key) (bool, error)
	// Write sets key to value.
	Write(key Key, value Value) error
	// Erase removes key, tombstoning it if this store layers over a parent.
	Erase(key Key) error
	// Find returns a cursor positioned at key if it is visible, or at End
	// otherwise.
	Find(key Key) Cursor
	// Begin returns a cursor positioned at the lexicographically smallest
	// visible key, or at End if the store is empty.
	Begin() Cursor
	// End returns the one-past-the-end sentinel cursor.
	End() Cursor
	// LowerBound returns a cursor at the smallest visible key >= key.
	LowerBound(key Key) Cursor
	// UpperBound returns a cursor at the smallest visible key > key.
	UpperBound(key Key) Cursor
	// WriteTo copies the visible pairs for keys into other.
	WriteTo(other Store, keys []Key) error
}

// Cursor is a bidirectional, key-ordered iterator over the pairs visible
// through a Store. Next and Prev report whether the cursor landed on an
// entry; once a cursor reaches End, implementations that support it may wrap
// back around rather than staying stuck (see session.Cursor).
type Cursor interface {
	// Next advances to the next key in ascending order. It returns false
	// if the cursor has no successor.
	Next() bool
	// Prev retreats to the previous key in ascending order. It returns
	// false if the cursor has no predecessor.
	Prev() bool
	// Key returns the key at the current position, or KeyInvalid at End.
	Key() Key
	// Value returns the value at the current position, or ValueInvalid at
	// End.
	Value() Value
	// Deleted reports whether the current position is a tombstone. It is
	// always false at End.
	Deleted() bool
	// Error returns any error encountered while positioning the cursor.
	Error() error
}
