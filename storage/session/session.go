package session

import (
	"github.com/jrife/session/storage/kv"
	"github.com/jrife/session/utils/uuid"
	"go.uber.org/zap"
)

var _ kv.Store = (*Session)(nil)

// Session is a layered, copy-on-write overlay over a kv.Store (C3/C5). It
// buffers writes and deletes above an optional Parent and exposes the same
// kv.Store surface its own parent does, so sessions nest to arbitrary depth:
// a session's Parent may be another Session just as easily as the
// persistent store at the bottom of the chain.
//
// Three invariants hold for the life of a session: updated and deleted are
// always disjoint, every key in updated is held in cache, and no key in
// deleted is held in cache.
type Session struct {
	parent  kv.Store
	cache   *kv.Cache
	updated *keySet
	deleted *keySet
	itcache *iterCache

	id     string
	logger *zap.Logger
}

// Option configures a Session at construction time.
type Option func(*Session)

// WithLogger sets the logger a session uses for lifecycle events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New returns an empty, detached Session.
func New(opts ...Option) *Session {
	s := &Session{
		cache:   kv.NewCache(),
		updated: newKeySet(),
		deleted: newKeySet(),
		itcache: newIterCache(),
		id:      uuid.MustUUID(),
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewChild returns a Session already attached to parent.
func NewChild(parent kv.Store, opts ...Option) (*Session, error) {
	s := New(opts...)

	if err := s.Attach(parent); err != nil {
		return nil, err
	}

	return s, nil
}

// Attach points the session at parent and primes its iterator cache with
// parent's current first and last keys, discarding anything the session had
// previously read through from a different parent. Keys this session has
// itself written are kept.
func (s *Session) Attach(parent kv.Store) error {
	s.logger.Debug("attach", zap.String("session", s.id))

	s.parent = parent

	return s.primeCache()
}

// Detach severs the parent link without touching buffered state. A detached
// session behaves like one with an always-empty parent.
func (s *Session) Detach() {
	s.logger.Debug("detach", zap.String("session", s.id))

	s.parent = nil
}

// primeCache discards any cache entries this session only holds because it
// read them through from the parent (i.e. anything not in updated), clears
// the iterator cache, then interns the parent's first and last keys so the
// very first probe has somewhere to start. If the parent is empty there is
// nothing to intern — dereferencing its End cursor would be meaningless.
func (s *Session) primeCache() error {
	s.itcache.clear()

	var readThrough []kv.Key

	s.cache.Range(func(key kv.Key, _ kv.Value) bool {
		if !s.updated.has(key) {
			readThrough = append(readThrough, key)
		}

		return true
	})

	s.cache.EraseKeys(readThrough)

	if s.parent == nil {
		return nil
	}

	begin := s.parent.Begin()
	if err := begin.Error(); err != nil {
		return err
	}

	if !begin.Key().Valid() {
		return nil
	}

	s.itcache.ensure(begin.Key())

	end := s.parent.End()
	if err := end.Error(); err != nil {
		return err
	}

	if end.Prev() {
		s.itcache.ensure(end.Key())
	}

	return nil
}

// Read implements kv.Store.
func (s *Session) Read(key kv.Key) (kv.Value, error) {
	if s.deleted.has(key) {
		return kv.ValueInvalid, nil
	}

	if v := s.cache.Read(key); v.Valid() {
		return v, nil
	}

	if s.parent == nil {
		return kv.ValueInvalid, nil
	}

	v, err := s.parent.Read(key)
	if err != nil {
		return kv.ValueInvalid, err
	}

	if v.Valid() {
		s.cache.Write(key, v)

		if err := s.updateIteratorCache(key, iterCacheParams{recalculate: true}); err != nil {
			return kv.ValueInvalid, err
		}
	}

	return v, nil
}

// Contains implements kv.Store.
func (s *Session) Contains(key kv.Key) (bool, error) {
	if s.deleted.has(key) {
		return false, nil
	}

	if s.cache.Contains(key) {
		return true, nil
	}

	if s.parent == nil {
		return false, nil
	}

	found, err := s.parent.Contains(key)
	if err != nil {
		return false, err
	}

	if !found {
		return false, nil
	}

	// overwrite is deliberately false here, matching the original source:
	// a positive parent-side Contains only interns the key, it never
	// clears a deleted flag the iterator cache might already hold for it.
	// See DESIGN.md for why this is left as-is rather than "fixed".
	if err := s.updateIteratorCache(key, iterCacheParams{recalculate: true}); err != nil {
		return false, err
	}

	return true, nil
}

// IsDeleted implements kv.Store.
func (s *Session) IsDeleted(key kv.Key) (bool, error) {
	if s.deleted.has(key) {
		return true, nil
	}

	if s.updated.has(key) {
		return false, nil
	}

	if s.parent == nil {
		return false, nil
	}

	return s.parent.IsDeleted(key)
}

// Write implements kv.Store.
func (s *Session) Write(key kv.Key, value kv.Value) error {
	s.updated.add(key)
	s.deleted.remove(key)
	s.cache.Write(key, value)

	return s.updateIteratorCache(key, iterCacheParams{recalculate: true, overwrite: true, markDeleted: false})
}

// Erase implements kv.Store.
func (s *Session) Erase(key kv.Key) error {
	s.deleted.add(key)
	s.updated.remove(key)
	s.cache.Erase(key)

	return s.updateIteratorCache(key, iterCacheParams{recalculate: true, overwrite: true, markDeleted: true})
}

// Clear discards every buffered write, delete, and cached read-through,
// without touching the parent link.
func (s *Session) Clear() {
	s.deleted.clear()
	s.updated.clear()
	s.cache.Clear()
	s.itcache.clear()
}

// Commit pushes every buffered delete and write into the parent, then
// clears the session. It is a no-op if there is no parent or nothing
// buffered, so committing twice in a row is safe.
func (s *Session) Commit() error {
	s.logger.Debug("commit", zap.String("session", s.id), zap.Int("updated", s.updated.len()), zap.Int("deleted", s.deleted.len()))

	if s.parent == nil || (s.updated.len() == 0 && s.deleted.len() == 0) {
		return nil
	}

	for _, key := range s.deleted.keys() {
		if err := s.parent.Erase(key); err != nil {
			return err
		}
	}

	if err := s.cache.WriteTo(s.parent, s.updated.keys()); err != nil {
		return err
	}

	s.Clear()

	return nil
}

// Undo discards every buffered write, delete, and cached read-through and
// detaches from the parent, as if the session had never been attached.
func (s *Session) Undo() {
	s.logger.Debug("undo", zap.String("session", s.id))

	s.Detach()
	s.Clear()
}

// Close commits then undoes the session, the Go stand-in for the original's
// destructor (commit-then-detach on scope exit).
func (s *Session) Close() error {
	if err := s.Commit(); err != nil {
		return err
	}

	s.Undo()

	return nil
}

// ReadBatch reads every key in keys, partitioning them into the pairs found
// and the keys that had no visible value.
func (s *Session) ReadBatch(keys []kv.Key) (found []kv.Pair, notFound []kv.Key, err error) {
	for _, key := range keys {
		v, err := s.Read(key)
		if err != nil {
			return nil, nil, err
		}

		if v.Valid() {
			found = append(found, kv.Pair{Key: key, Value: v})
		} else {
			notFound = append(notFound, key)
		}
	}

	return found, notFound, nil
}

// WriteBatch writes every pair.
func (s *Session) WriteBatch(pairs []kv.Pair) error {
	for _, p := range pairs {
		if err := s.Write(p.Key, p.Value); err != nil {
			return err
		}
	}

	return nil
}

// EraseBatch erases every key.
func (s *Session) EraseBatch(keys []kv.Key) error {
	for _, key := range keys {
		if err := s.Erase(key); err != nil {
			return err
		}
	}

	return nil
}

// WriteTo implements kv.Store: it copies this session's composed view of
// keys into other, skipping any key with no visible value.
func (s *Session) WriteTo(other kv.Store, keys []kv.Key) error {
	for _, key := range keys {
		v, err := s.Read(key)
		if err != nil {
			return err
		}

		if !v.Valid() {
			continue
		}

		if err := other.Write(key, v); err != nil {
			return err
		}
	}

	return nil
}

// ReadFrom copies the composed view of keys from other into this session.
func (s *Session) ReadFrom(other kv.Store, keys []kv.Key) error {
	return other.WriteTo(s, keys)
}

// updateIteratorCache interns key and, unless primeOnly is set, resolves
// its immediate neighbors via bounds() and interns those too, linking all
// three iterState entries' flags together (C4). If both neighbor flags for
// key are already true and recalculate isn't set, this returns immediately.
func (s *Session) updateIteratorCache(key kv.Key, params iterCacheParams) error {
	st := s.itcache.ensure(key)

	if params.primeOnly {
		return nil
	}

	if params.overwrite {
		st.deleted = params.markDeleted
	}

	if !params.recalculate && st.nextInCache && st.prevInCache {
		return nil
	}

	lower, upper, err := s.bounds(key)
	if err != nil {
		return err
	}

	if lower.Valid() {
		lowerState := s.itcache.ensure(lower)
		lowerState.nextInCache = true
		st.prevInCache = true
	}

	if upper.Valid() {
		upperState := s.itcache.ensure(upper)
		upperState.prevInCache = true
		st.nextInCache = true
	}

	return nil
}
