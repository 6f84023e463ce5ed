package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_WhitespaceAndCommentsIgnored(t *testing.T) {
	a := "```go\nfunc Add(a, b int) int {\n  return a + b\n}\n```"
	b := "```go\nfunc Add(a, b int) int {\n\t// adds two numbers\n\treturn a + b\n}\n\n```"

	require.Equal(t, Fingerprint(a), Fingerprint(b), "whitespace/comment-only changes must not change the fingerprint")
}

func TestFingerprint_IdentifierChangeAltersHash(t *testing.T) {
	a := "```go\nfunc Add(a, b int) int { return a + b }\n```"
	b := "```go\nfunc Sum(a, b int) int { return a + b }\n```"

	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_NoFencedBlockUsesWholeText(t *testing.T) {
	a := "func Add(a, b int) int { return a + b }"
	b := "func   Add(a,   b  int)   int   {   return   a + b   }"

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_MultipleBlocksConcatenatedInOrder(t *testing.T) {
	a := "```go\nfunc A() {}\n```\nsome prose\n```go\nfunc B() {}\n```"
	b := "```go\nfunc A() {}\nfunc B() {}\n```"

	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_EmptyInputIsWellKnown(t *testing.T) {
	assert.Equal(t, EmptyFingerprint, Fingerprint(""))
	assert.Equal(t, EmptyFingerprint, Fingerprint("   \n\t  "))
}

func TestFingerprint_BlockCommentStripped(t *testing.T) {
	a := "```go\n/* block comment */ func A() {}\n```"
	b := "```go\nfunc A() {}\n```"
	assert.Equal(t, Fingerprint(a), Fingerprint(b))
}

func TestFingerprint_StableAcrossCalls(t *testing.T) {
	text := "```go\nfunc A() { return }\n```"
	assert.Equal(t, Fingerprint(text), Fingerprint(text))
}
