package builder

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/xid"

	"github.com/sakif/waform/internal/apperror"
)

// Session pairs a State with the user editing it. Requests for the same
// session are serialised through Do so the State keeps its single-threaded
// contract.
type Session struct {
	ID     string
	UserID int64

	mu    sync.Mutex
	state *State
}

// Do runs fn with exclusive access to the session's State.
func (s *Session) Do(fn func(*State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.state)
}

// Store keeps builder sessions in memory. Idle sessions expire after the
// TTL and the least recently used ones are evicted when the store is full.
// Evicted sessions are reset so no draft outlives its session.
type Store struct {
	cache *expirable.LRU[string, *Session]
	opts  []Option
}

// NewStore creates a store holding at most size sessions for ttl each.
func NewStore(size int, ttl time.Duration, opts ...Option) *Store {
	onEvict := func(_ string, s *Session) {
		s.Do(func(st *State) { st.Reset() })
	}
	return &Store{
		cache: expirable.NewLRU[string, *Session](size, onEvict, ttl),
		opts:  opts,
	}
}

// Create starts a fresh session in the reset state.
func (st *Store) Create(userID int64) *Session {
	s := &Session{
		ID:     xid.New().String(),
		UserID: userID,
		state:  New(st.opts...),
	}
	st.cache.Add(s.ID, s)
	return s
}

// Get returns the session if it exists and belongs to userID.
func (st *Store) Get(id string, userID int64) (*Session, error) {
	s, ok := st.cache.Get(id)
	if !ok {
		return nil, apperror.NotFound("builder session", id)
	}
	if s.UserID != userID {
		return nil, apperror.Forbidden("builder session belongs to another user")
	}
	// Add on an existing key restarts its TTL; Get alone does not.
	st.cache.Add(id, s)
	return s, nil
}

// Delete ends a session. Its state is reset by the eviction callback.
func (st *Store) Delete(id string, userID int64) error {
	if _, err := st.Get(id, userID); err != nil {
		return err
	}
	st.cache.Remove(id)
	return nil
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	return st.cache.Len()
}
