// Package contextpack declares the external context-building
// collaborator: it turns a scope selection (diff/paths/workspace) into
// the text blob handed to a judge alongside the candidate. Shaped after
// the "build a text pack from structured inputs" idiom of formatting
// timeline events into a text blob, generalized from formatting
// timeline events to formatting file/diff context, and from a regular
// Go error return to the never-throws contract the core requires of
// this collaborator.
package contextpack

import (
	"context"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// failedPrefix marks a stub pack produced after a build failure, per
// the collaborator's never-throw contract.
const failedPrefix = "Context building failed"

// Request selects what context to build.
type Request struct {
	Scope audit.ContextScope `json:"scope"`
	Paths []string           `json:"paths,omitempty"`
	Diff  string             `json:"diff,omitempty"`
}

// ContextPacker builds a text context pack for a judge request. Build
// must never return an error to the caller — on failure it returns a
// short stub beginning with "Context building failed" and the caller
// proceeds with that stub rather than aborting the audit.
type ContextPacker interface {
	Build(ctx context.Context, req Request) string
}

// StubPacker is a ContextPacker that never builds real context: it
// always returns a short, deterministic stub. Useful as a default when
// no filesystem/git-aware packer is wired, and in tests.
type StubPacker struct{}

// NewStubPacker creates a StubPacker.
func NewStubPacker() *StubPacker {
	return &StubPacker{}
}

// Build implements ContextPacker.
func (StubPacker) Build(_ context.Context, req Request) string {
	switch req.Scope {
	case audit.ScopeDiff:
		if req.Diff == "" {
			return failedPrefix + ": no diff scope is wired, and no diff was supplied"
		}
		return req.Diff
	case audit.ScopePaths:
		if len(req.Paths) == 0 {
			return failedPrefix + ": scope is paths, but no paths were supplied"
		}
		return "paths: " + joinPaths(req.Paths)
	case audit.ScopeWorkspace:
		return failedPrefix + ": workspace scope requires a filesystem-aware packer, none is wired"
	default:
		return failedPrefix + ": unrecognized scope"
	}
}

func joinPaths(paths []string) string {
	out := paths[0]
	for _, p := range paths[1:] {
		out += ", " + p
	}
	return out
}
