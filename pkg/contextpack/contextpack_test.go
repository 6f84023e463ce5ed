package contextpack

import (
	"context"
	"strings"
	"testing"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/stretchr/testify/assert"
)

func TestStubPacker_DiffScopeReturnsDiffVerbatim(t *testing.T) {
	p := NewStubPacker()
	out := p.Build(context.Background(), Request{Scope: audit.ScopeDiff, Diff: "+line added"})
	assert.Equal(t, "+line added", out)
}

func TestStubPacker_DiffScopeWithoutDiffReturnsStub(t *testing.T) {
	p := NewStubPacker()
	out := p.Build(context.Background(), Request{Scope: audit.ScopeDiff})
	assert.True(t, strings.HasPrefix(out, "Context building failed"))
}

func TestStubPacker_PathsScopeListsPaths(t *testing.T) {
	p := NewStubPacker()
	out := p.Build(context.Background(), Request{Scope: audit.ScopePaths, Paths: []string{"a.go", "b.go"}})
	assert.Contains(t, out, "a.go")
	assert.Contains(t, out, "b.go")
}

func TestStubPacker_WorkspaceScopeReturnsStub(t *testing.T) {
	p := NewStubPacker()
	out := p.Build(context.Background(), Request{Scope: audit.ScopeWorkspace})
	assert.True(t, strings.HasPrefix(out, "Context building failed"))
}

func TestStubPacker_NeverPanics(t *testing.T) {
	p := NewStubPacker()
	assert.NotPanics(t, func() {
		p.Build(context.Background(), Request{Scope: "bogus"})
	})
}
