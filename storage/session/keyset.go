package session

import "github.com/jrife/session/storage/kv"

// keySet is a set of kv.Key, keyed by its byte content.
type keySet struct {
	m map[string]kv.Key
}

func newKeySet() *keySet {
	return &keySet{m: map[string]kv.Key{}}
}

func (s *keySet) add(key kv.Key) {
	s.m[string(key)] = key
}

func (s *keySet) remove(key kv.Key) {
	delete(s.m, string(key))
}

func (s *keySet) has(key kv.Key) bool {
	_, found := s.m[string(key)]

	return found
}

func (s *keySet) len() int {
	return len(s.m)
}

func (s *keySet) clear() {
	s.m = map[string]kv.Key{}
}

func (s *keySet) keys() []kv.Key {
	keys := make([]kv.Key, 0, len(s.m))

	for _, key := range s.m {
		keys = append(keys, key)
	}

	return keys
}
