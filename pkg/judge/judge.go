// Package judge declares the external scoring collaborator: the opaque
// "judge" that actually reviews a candidate and returns a Review. The
// core never decides how scoring happens — it calls Judge.Audit and
// trusts the result, mirroring a pluggable LLM-client interface rather
// than baking in a provider.
package judge

import (
	"context"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// RubricDimension is one named, weighted scoring axis offered to the judge.
type RubricDimension struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// Rubric is the full set of dimensions a judge is asked to score against.
type Rubric struct {
	Dimensions []RubricDimension `json:"dimensions"`
}

// Budget bounds how much work the judge may spend on one request.
type Budget struct {
	MaxCycles  int     `json:"maxCycles"`
	Candidates int     `json:"candidates"`
	Threshold  float64 `json:"threshold"`
}

// Request is the deterministic review request assembled by the
// orchestrator and handed to a Judge.
type Request struct {
	Task        string `json:"task"`
	Candidate   string `json:"candidate"`
	ContextPack string `json:"contextPack"`
	Rubric      Rubric `json:"rubric"`
	Budget      Budget `json:"budget"`
}

// Judge is the external scoring collaborator. Implementations may be
// in-process, call out to an LLM, or proxy a remote service — the
// workflow engine and orchestrator depend only on this interface.
type Judge interface {
	// Audit scores one candidate and returns a structured Review.
	Audit(ctx context.Context, req Request) (audit.Review, error)
	// IsAvailable reports whether the judge is currently reachable.
	IsAvailable(ctx context.Context) (bool, error)
	// GetVersion reports the judge implementation's version string.
	GetVersion(ctx context.Context) (string, error)
}
