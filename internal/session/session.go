// Package session keeps signed-in players and their seat at a table.
package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/windfall/windfall/internal/auth"
	"github.com/windfall/windfall/internal/blackjack"
)

var (
	// ErrNotFound is returned for an unknown session id
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned for a session past its lifetime
	ErrExpired = errors.New("session: expired")
)

// RoundFactory seats a player at a table with the given balance
type RoundFactory func(chips int) (*blackjack.Round, error)

// Session is one signed-in player. The player's chips travel with them from
// table to table; a session is seated at no more than one table at a time.
type Session struct {
	ID        string
	Token     string
	User      auth.User
	CreatedAt time.Time
	ExpiresAt time.Time

	mu      sync.Mutex
	chips   int
	tableID string
	round   *blackjack.Round
}

// Play runs fn against the player's round at tableID, seating them first if
// they are elsewhere. Calls on one session are serialised.
func (s *Session) Play(tableID string, newRound RoundFactory, fn func(*blackjack.Round) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round == nil || s.tableID != tableID {
		s.leave()
		r, err := newRound(s.chips)
		if err != nil {
			return err
		}
		s.round = r
		s.tableID = tableID
	}
	return fn(s.round)
}

// Leave stands the player up from their table. A bet still in play is forfeited.
func (s *Session) Leave() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leave()
}

func (s *Session) leave() {
	if s.round == nil {
		return
	}
	s.chips = s.round.Chips()
	s.round = nil
	s.tableID = ""
}

// Chips returns the player's balance, including chips on the table
func (s *Session) Chips() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.round != nil {
		return s.round.Chips()
	}
	return s.chips
}

// TableID returns the table the player is seated at, or ""
func (s *Session) TableID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tableID
}

// Store holds sessions in memory. Sessions expire a fixed TTL after
// creation.
type Store struct {
	mu            sync.RWMutex
	sessions      map[string]*Session
	clock         quartz.Clock
	ttl           time.Duration
	startingChips int
	logger        *log.Logger
}

// NewStore creates a session store
func NewStore(clock quartz.Clock, ttl time.Duration, startingChips int, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{
		sessions:      make(map[string]*Session),
		clock:         clock,
		ttl:           ttl,
		startingChips: startingChips,
		logger:        logger,
	}
}

// Create starts a session for a freshly authenticated user
func (st *Store) Create(token string, user auth.User) *Session {
	now := st.clock.Now()
	s := &Session{
		ID:        uuid.NewString(),
		Token:     token,
		User:      user,
		CreatedAt: now,
		ExpiresAt: now.Add(st.ttl),
		chips:     st.startingChips,
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()

	st.logger.Debug("Session created", "session", s.ID, "user", user.Email)
	return s
}

// Get returns a live session
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	if !st.clock.Now().Before(s.ExpiresAt) {
		st.Delete(id)
		return nil, ErrExpired
	}
	return s, nil
}

// Delete removes a session and returns it, or nil if it was unknown
func (st *Store) Delete(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil
	}
	delete(st.sessions, id)
	return s
}

// Sweep drops every expired session and returns how many were removed
func (st *Store) Sweep() int {
	now := st.clock.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(st.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		st.logger.Debug("Swept expired sessions", "removed", removed, "remaining", len(st.sessions))
	}
	return removed
}

// Len returns the number of stored sessions, expired or not
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Run sweeps expired sessions every interval until ctx is cancelled
func (st *Store) Run(ctx context.Context, interval time.Duration) error {
	w := st.clock.TickerFunc(ctx, interval, func() error {
		st.Sweep()
		return nil
	}, "session", "sweep")

	if err := w.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
