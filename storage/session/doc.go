// Package session implements a layered, copy-on-write overlay over a
// kv.Store. A Session buffers writes and deletes above a Parent — either
// another Session or the persistent store at the bottom of the chain — and
// exposes the same kv.Store surface so sessions nest to arbitrary depth.
//
// A session holds three pieces of state: a local Cache of keys it has
// written or read through from its parent, a pair of key sets (updated, the
// cache entries that are this session's own writes, as opposed to
// parent-sourced reads-through; deleted, this session's tombstones, which
// are never held in the cache), and an iterator cache that
// remembers, for keys it has already located, whether their immediate
// neighbors in the composed ordering are themselves already known.
//
// Commit pushes updated into the parent and erases deleted from it, then
// clears the session back to empty — so committing a session twice, or
// committing one with nothing buffered, is a no-op. Undo detaches from the
// parent and clears without writing anything back.
package session
