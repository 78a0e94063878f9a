package kv

import (
	"bytes"

	"github.com/jrife/session/storage/kv/keys"
)

// Key is an immutable byte string, totally ordered lexicographically. A nil
// Key is KeyInvalid, the sentinel for "no such key".
type Key = keys.Key

// Value is an immutable byte string. A nil Value is ValueInvalid, the
// sentinel every read path returns in place of an error when a key has no
// visible value.
type Value []byte

// KeyInvalid is the distinguished "absent" key.
var KeyInvalid Key = nil

// ValueInvalid is the distinguished "absent" value. It must never be
// conflated with an error: it means the composed view has nothing for this
// key, not that reading it failed.
var ValueInvalid Value = nil

// Valid reports whether v is anything other than ValueInvalid.
func (v Value) Valid() bool {
	return v != nil
}

// Compare orders two keys lexicographically, delegating to keys.Compare.
func Compare(a, b Key) int {
	return keys.Compare(a, b)
}

// Equal reports whether two values hold the same bytes.
func (v Value) Equal(other Value) bool {
	return bytes.Equal(v, other)
}

// Pair is a single key/value observation, the value type yielded by a Cursor.
type Pair struct {
	Key   Key
	Value Value
}
