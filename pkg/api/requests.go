package api

import "github.com/codeready-toolchain/ganaudit/pkg/audit"

// ThoughtRequest is the request body for POST /api/v1/thoughts.
type ThoughtRequest struct {
	ThoughtNumber     int                   `json:"thoughtNumber" binding:"required"`
	Thought           string                `json:"thought" binding:"required"`
	BranchID          string                `json:"branchId,omitempty"`
	TotalThoughts     int                   `json:"totalThoughts,omitempty"`
	NextThoughtNeeded bool                  `json:"nextThoughtNeeded,omitempty"`
	SessionID         string                `json:"sessionId,omitempty"`
	Config            *SessionConfigRequest `json:"config,omitempty"`
}

// SessionConfigRequest is the inline session-config override accepted
// alongside a thought. Every field is optional; zero values are left
// for audit.SessionConfig.Merge to skip.
type SessionConfigRequest struct {
	Task       string   `json:"task,omitempty"`
	Scope      string   `json:"scope,omitempty"`
	Threshold  float64  `json:"threshold,omitempty"`
	MaxCycles  int      `json:"maxCycles,omitempty"`
	Candidates int      `json:"candidates,omitempty"`
	Judges     []string `json:"judges,omitempty"`
	ApplyFixes bool     `json:"applyFixes,omitempty"`
}

// toSessionConfig converts the wire request into the domain type consumed
// by the orchestrator. Returns nil when req is nil, so an absent "config"
// field in the request body leaves session/inline config resolution alone.
func (req *SessionConfigRequest) toSessionConfig() *audit.SessionConfig {
	if req == nil {
		return nil
	}
	return &audit.SessionConfig{
		Task:       req.Task,
		Scope:      audit.ContextScope(req.Scope),
		Threshold:  req.Threshold,
		MaxCycles:  req.MaxCycles,
		Candidates: req.Candidates,
		Judges:     req.Judges,
		ApplyFixes: req.ApplyFixes,
	}
}

func (req *ThoughtRequest) toThought() audit.Thought {
	return audit.Thought{
		ThoughtNumber:     req.ThoughtNumber,
		Thought:           req.Thought,
		BranchID:          req.BranchID,
		TotalThoughts:     req.TotalThoughts,
		NextThoughtNeeded: req.NextThoughtNeeded,
	}
}
