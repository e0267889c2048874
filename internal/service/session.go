package service

import (
	"sync"
	"time"
)

// UploadSession is the transient descriptor of a pending direct upload,
// created at init and discarded at finalize or expiry. Sessions live only in
// process memory: a restart loses them and the client restarts the protocol.
type UploadSession struct {
	StorageKey    string
	Filename      string
	ContentType   string
	DeclaredSize  int64
	CategoryID    int64
	SubcategoryID *int64
	ExpiresAt     time.Time
}

// sessionStore keeps live upload sessions keyed by storage key. Expired
// sessions are indistinguishable from absent ones; they are swept lazily on
// each insert so the map cannot grow unbounded under abandoned uploads.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]UploadSession
	now      func() time.Time
}

func newSessionStore() *sessionStore {
	return &sessionStore{
		sessions: make(map[string]UploadSession),
		now:      time.Now,
	}
}

// Add registers a session under its storage key.
func (s *sessionStore) Add(sess UploadSession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, existing := range s.sessions {
		if now.After(existing.ExpiresAt) {
			delete(s.sessions, key)
		}
	}
	s.sessions[sess.StorageKey] = sess
}

// Consume removes and returns the live session for the key. A session is
// handed out at most once; a second Consume for the same key reports false,
// as does any Consume past the expiry.
func (s *sessionStore) Consume(storageKey string) (UploadSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[storageKey]
	if !ok {
		return UploadSession{}, false
	}
	delete(s.sessions, storageKey)
	if s.now().After(sess.ExpiresAt) {
		return UploadSession{}, false
	}
	return sess, true
}

// Len reports the number of tracked sessions, including not-yet-swept
// expired ones.
func (s *sessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
