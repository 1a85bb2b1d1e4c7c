package session

import "sync"

// Session is an immutable snapshot of the authentication state. Token is set iff
// Principal is set.
type Session struct {
	Principal *Principal `json:"user"`
	Token     string     `json:"-"`
	Pending   bool       `json:"pending"`
	Error     string     `json:"error,omitempty"`
}

// SignedIn reports whether a principal is present.
func (s Session) SignedIn() bool { return s.Principal != nil }

// Listener observes every new snapshot, in the order intents were applied.
type Listener func(Session)

// Store is the single source of truth for who is logged in. Intents are
// serialised by the store; readers only ever get copies.
type Store struct {
	dispatch  sync.Mutex // one intent, listeners included, at a time
	mu        sync.Mutex
	state     Session
	listeners []Listener
}

func NewStore() *Store { return &Store{} }

// OnChange registers l to run after each intent. Listeners may read the store
// but must not dispatch intents to it.
func (s *Store) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.copy()
}

func (s *Store) Status() Status {
	return StatusOf(s.Snapshot())
}

// BeginAuth marks an auth request as in flight and clears the previous error.
func (s *Store) BeginAuth() {
	s.apply(func(st *Session) {
		st.Pending = true
		st.Error = ""
	})
}

// AuthSucceeded installs the principal and token, overwriting whatever was there.
// An empty token signs nobody in: the pending request ends and the state is
// otherwise left alone.
func (s *Store) AuthSucceeded(p Principal, token string) {
	p = p.clone()
	s.apply(func(st *Session) {
		if token == "" {
			st.Pending = false
			return
		}
		st.Principal = &p
		st.Token = token
		st.Pending = false
		st.Error = ""
	})
}

// AuthFailed records the failure. An existing principal stays signed in.
func (s *Store) AuthFailed(message string) {
	s.apply(func(st *Session) {
		st.Error = message
		st.Pending = false
	})
}

// EndSession signs the principal out.
func (s *Store) EndSession() {
	s.apply(func(st *Session) {
		*st = Session{}
	})
}

func (s *Store) apply(fn func(*Session)) {
	s.dispatch.Lock()
	defer s.dispatch.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snap := s.state.copy()
	listeners := s.listeners
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func (s Session) copy() Session {
	if s.Principal != nil {
		p := s.Principal.clone()
		s.Principal = &p
	}
	return s
}
