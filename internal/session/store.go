package session

import "sync"

// Store is the process-wide registry mapping chat identity to its Session.
// One session per chat at a time; sessions are volatile and never survive
// a restart. The store is injected into handlers instead of living as a
// package-level map so tests can run without a live bot.
type Store struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// GetOrCreate returns the session for chatID, creating it on first contact.
func (st *Store) GetOrCreate(chatID int64) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	if s, ok := st.sessions[chatID]; ok {
		return s
	}
	s := New(chatID)
	st.sessions[chatID] = s
	return s
}

// Get returns the session for chatID if one exists.
func (st *Store) Get(chatID int64) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[chatID]
	return s, ok
}

// Delete removes the session for chatID. Deleting a missing chat is a no-op.
func (st *Store) Delete(chatID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, chatID)
}

// Len reports how many chats currently hold a session.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Range calls fn for every registered session until fn returns false.
// Used by the shutdown sweep that deletes transient prompts.
func (st *Store) Range(fn func(chatID int64, s *Session) bool) {
	st.mu.RLock()
	snapshot := make(map[int64]*Session, len(st.sessions))
	for id, s := range st.sessions {
		snapshot[id] = s
	}
	st.mu.RUnlock()

	for id, s := range snapshot {
		if !fn(id, s) {
			return
		}
	}
}
