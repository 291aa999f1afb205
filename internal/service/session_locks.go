package service

import "sync"

type sessionKey struct {
	userID  string
	storyID string
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// sessionLocks serialises calls for the same (user, story) inside one process.
// Every pair gets its own mutex; the entry is dropped once nobody holds or waits on it.
type sessionLocks struct {
	mu      sync.Mutex
	entries map[sessionKey]*lockEntry
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{entries: make(map[sessionKey]*lockEntry)}
}

func (l *sessionLocks) lock(userID, storyID string) (unlock func()) {
	key := sessionKey{userID: userID, storyID: storyID}

	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

