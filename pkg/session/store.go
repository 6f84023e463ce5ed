package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/google/uuid"
)

// Store is the in-memory Session Store façade. A single session is
// treated as exclusively owned by one in-flight audit at a time (guarded
// by its own mutex); concurrent access to different sessions does not
// contend on a shared lock beyond the registry map itself.
type Store struct {
	persister Persister

	mu       sync.RWMutex
	sessions map[string]*State
}

// New constructs a Store. persister may be nil for a purely in-memory store.
func New(persister Persister) *Store {
	return &Store{
		persister: persister,
		sessions:  make(map[string]*State),
	}
}

// GenerateSessionID returns a fresh, globally unique session identifier.
func (s *Store) GenerateSessionID() string {
	return uuid.NewString()
}

// GetSession retrieves a session by ID, consulting the persister on a
// local miss.
func (s *Store) GetSession(id string) (State, bool) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return st.clone(), true
	}

	if s.persister == nil {
		return State{}, false
	}
	loaded, found, err := s.persister.Load(id)
	if err != nil {
		slog.Warn("session: persister load failed, treating as not found", "session_id", id, "error", err)
		return State{}, false
	}
	if !found {
		return State{}, false
	}

	s.mu.Lock()
	s.sessions[id] = &loaded
	s.mu.Unlock()
	return loaded.clone(), true
}

// CreateSession creates and registers a new session. If id is empty, one
// is generated.
func (s *Store) CreateSession(id string, cfg audit.SessionConfig) State {
	if id == "" {
		id = s.GenerateSessionID()
	}
	cfg.Clamp()
	now := time.Now()
	st := &State{
		ID:        id,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.sessions[id] = st
	s.mu.Unlock()

	s.persist(st)
	return st.clone()
}

// UpdateSession overwrites the stored config/flags for an existing
// session without touching its history.
func (s *Store) UpdateSession(id string, cfg audit.SessionConfig) (State, error) {
	s.mu.RLock()
	st, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return State{}, fmt.Errorf("session not found: %s", id)
	}

	st.mu.Lock()
	cfg.Clamp()
	st.Config = cfg
	st.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.persist(st)
	return st.clone(), nil
}

// AddAuditToHistory appends one audit outcome to a session's history.
// thoughtNumber must equal len(history)+1, rejecting out-of-order or
// duplicate appends; appending after completion is rejected.
func (s *Store) AddAuditToHistory(sessionID string, review audit.Review, cfg audit.SessionConfig, thoughtNumber int) error {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	st.mu.Lock()
	if st.IsComplete {
		st.mu.Unlock()
		return fmt.Errorf("session %s is already complete, cannot append history", sessionID)
	}
	expected := len(st.History) + 1
	if thoughtNumber != expected {
		st.mu.Unlock()
		return fmt.Errorf("out-of-order history append: expected thoughtNumber %d, got %d", expected, thoughtNumber)
	}

	now := time.Now()
	st.History = append(st.History, audit.HistoryEntry{
		ThoughtNumber: thoughtNumber,
		Review:        review,
		Config:        cfg,
		Timestamp:     now,
	})
	st.CurrentLoop = len(st.History)
	reviewCopy := review
	st.LastReview = &reviewCopy
	st.UpdatedAt = now
	st.mu.Unlock()

	s.persist(st)
	return nil
}

// MarkComplete marks a session complete, after which no further history
// may be appended.
func (s *Store) MarkComplete(sessionID string) error {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	st.mu.Lock()
	st.IsComplete = true
	st.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.persist(st)
	return nil
}

// RecordIteration appends a code/result snapshot used by stagnation
// detection.
func (s *Store) RecordIteration(sessionID string, iteration audit.IterationData) error {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	st.mu.Lock()
	st.Iterations = append(st.Iterations, iteration)
	st.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.persist(st)
	return nil
}

// RecordStagnation persists the outcome of the stagnation analyzer so
// GetSession callers (and the next completion.Evaluate call) see it.
func (s *Store) RecordStagnation(sessionID string, result audit.StagnationResult) error {
	s.mu.RLock()
	st, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	st.mu.Lock()
	st.StagnationInfo = &result
	st.UpdatedAt = time.Now()
	st.mu.Unlock()

	s.persist(st)
	return nil
}

// CleanupSessions removes in-memory sessions whose last update is older
// than olderThan. Persisted copies are left untouched here; retention
// against the persister is a separate concern (pkg/cleanup).
func (s *Store) CleanupSessions(olderThan time.Duration) int {
	cutoff := time.Now().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, st := range s.sessions {
		st.mu.RLock()
		stale := st.UpdatedAt.Before(cutoff)
		st.mu.RUnlock()
		if stale {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Destroy clears all in-memory sessions. The persister, if any, is left
// untouched.
func (s *Store) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]*State)
}

// persist best-effort saves st to the configured persister. Failures are
// logged and swallowed so persistence never poisons an in-memory result.
func (s *Store) persist(st *State) {
	if s.persister == nil {
		return
	}
	snapshot := st.clone()
	if err := s.persister.Save(snapshot); err != nil {
		slog.Warn("session: persist failed", "session_id", snapshot.ID, "error", err)
	}
}
