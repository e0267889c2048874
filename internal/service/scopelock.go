package service

import (
	"sort"
	"sync"
)

// ScopeLocks serializes mutations per ordering scope so reorder, delete and
// reassign cannot interleave within one scope. Locks for different scopes are
// independent; cross-scope operations proceed in parallel.
type ScopeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewScopeLocks creates an empty lock registry, shared by all services that
// mutate scope order.
func NewScopeLocks() *ScopeLocks {
	return &ScopeLocks{locks: make(map[string]*sync.Mutex)}
}

func (s *ScopeLocks) get(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// Lock acquires the mutex for one scope key and returns its unlock func.
func (s *ScopeLocks) Lock(key string) func() {
	l := s.get(key)
	l.Lock()
	return l.Unlock
}

// LockAll acquires multiple scope keys in a deterministic order so two
// callers locking overlapping sets cannot deadlock. Duplicate keys are
// acquired once.
func (s *ScopeLocks) LockAll(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	unlocks := make([]func(), 0, len(uniq))
	for _, k := range uniq {
		unlocks = append(unlocks, s.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}
