package kms

// Store indexes session records by ID and by unordered device pair.
// The pair index enforces at most one live session per device pair;
// compromised sessions stay in the ID index as tombstones but never
// appear in the pair index.
//
// Store is not safe for concurrent use on its own. The Manager serializes
// all access under one lock so that a pair lookup, the channel exchange
// and the insert observe a single consistent state.
type Store struct {
	sessions map[SessionID]*Session
	pairs    map[pairKey]SessionID
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[SessionID]*Session),
		pairs:    make(map[pairKey]SessionID),
	}
}

// Add indexes a new session by ID and by its device pair.
func (s *Store) Add(sess *Session) error {
	if sess == nil {
		return ErrInvalidSessionID
	}
	if _, exists := s.sessions[sess.ID()]; exists {
		return ErrDuplicateSession
	}

	pair := newPairKey(sess.Initiator(), sess.Peer())
	if _, exists := s.pairs[pair]; exists {
		return ErrDuplicateSession
	}

	s.sessions[sess.ID()] = sess
	s.pairs[pair] = sess.ID()
	return nil
}

// Get looks up a session by ID. Returns nil if not found.
func (s *Store) Get(id SessionID) *Session {
	return s.sessions[id]
}

// FindByPair looks up the live session for an unordered device pair.
// Returns nil if the pair has no live session.
func (s *Store) FindByPair(a, b DeviceID) *Session {
	id, ok := s.pairs[newPairKey(a, b)]
	if !ok {
		return nil
	}
	return s.sessions[id]
}

// RemovePair drops the pair index entry for a session, leaving the
// session record itself in place. Used when a session is invalidated so
// the pair can establish a fresh session while the tombstone remains
// visible.
func (s *Store) RemovePair(sess *Session) {
	pair := newPairKey(sess.Initiator(), sess.Peer())
	if s.pairs[pair] == sess.ID() {
		delete(s.pairs, pair)
	}
}

// Remove deletes a session record and its pair index entry entirely.
func (s *Store) Remove(id SessionID) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	s.RemovePair(sess)
	delete(s.sessions, id)
}

// Count returns the total number of session records, tombstones included.
func (s *Store) Count() int {
	return len(s.sessions)
}

// ActiveCount returns the number of non-compromised sessions.
func (s *Store) ActiveCount() int {
	count := 0
	for _, sess := range s.sessions {
		if sess.Status() != StatusCompromised {
			count++
		}
	}
	return count
}

// All returns every session record in unspecified order.
func (s *Store) All() []*Session {
	result := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, sess)
	}
	return result
}

// Clear drops all sessions and pair entries. Keys are not zeroized here;
// the Manager zeroizes each session before clearing.
func (s *Store) Clear() {
	s.sessions = make(map[SessionID]*Session)
	s.pairs = make(map[pairKey]SessionID)
}
