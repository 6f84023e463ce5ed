// Package session implements the Session Store façade: an in-memory,
// concurrency-safe registry of audit sessions with an optional durable
// persister injected at construction. Adapted directly from the
// pkg/session/manager.go + types.go pattern (sync.RWMutex-guarded map,
// uuid.New() IDs, Clone() for safe reads), generalized from chat
// Message history to audit HistoryEntry/IterationData.
package session

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// State is one session's full in-memory record. history is append-only;
// currentLoop tracks history length; once isComplete is true no further
// history may be appended.
type State struct {
	ID                 string                   `json:"id"`
	Config             audit.SessionConfig      `json:"config"`
	History            []audit.HistoryEntry     `json:"history"`
	Iterations         []audit.IterationData    `json:"iterations"`
	CurrentLoop        int                      `json:"currentLoop"`
	IsComplete         bool                     `json:"isComplete"`
	LastReview         *audit.Review            `json:"lastReview,omitempty"`
	StagnationInfo     *audit.StagnationResult  `json:"stagnationInfo,omitempty"`
	CodexContextActive bool                     `json:"codexContextActive"`
	CreatedAt          time.Time                `json:"createdAt"`
	UpdatedAt          time.Time                `json:"updatedAt"`

	mu sync.RWMutex
}

// clone returns a deep, lock-free copy suitable for callers to read
// without holding the store's lock.
func (s *State) clone() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := make([]audit.HistoryEntry, len(s.History))
	copy(history, s.History)
	iterations := make([]audit.IterationData, len(s.Iterations))
	copy(iterations, s.Iterations)

	out := State{
		ID:                 s.ID,
		Config:             s.Config,
		History:            history,
		Iterations:         iterations,
		CurrentLoop:        s.CurrentLoop,
		IsComplete:         s.IsComplete,
		CodexContextActive: s.CodexContextActive,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
	if s.LastReview != nil {
		review := *s.LastReview
		out.LastReview = &review
	}
	if s.StagnationInfo != nil {
		stag := *s.StagnationInfo
		out.StagnationInfo = &stag
	}
	return out
}

// Persister is the external durable-storage collaborator. Implementations
// (file-backed, Postgres-backed) are injected at Store construction; a
// nil Persister means sessions live purely in memory. Errors from a
// Persister must never poison the caller's in-memory result — the Store
// logs and swallows them.
type Persister interface {
	Save(state State) error
	Load(id string) (State, bool, error)
	Delete(id string) error
}
