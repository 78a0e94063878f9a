// Package kv defines the narrow capability set shared by every node in a
// session chain: a Store exposes point reads/writes/erases, tombstone
// visibility, and a bidirectional key-ordered Cursor. A session
// (see package session) and the bottom-most persistent store (see
// storage/kv/memstore and storage/kv/boltstore) both implement Store, so a
// session's parent can be either another session or the real thing.
//
// Everything in this package is intentionally dumb: it knows nothing about
// deltas, tombstones as a first-class concept, or iterator caches. That
// bookkeeping lives one layer up, in package session.
package kv
