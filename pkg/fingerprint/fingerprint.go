// Package fingerprint normalizes the candidate code carried by a thought
// into a stable, collision-resistant content hash.
package fingerprint

import (
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// EmptyFingerprint is the well-known hash of empty/whitespace-only input.
// Storing cache entries under this key is permitted but validators should
// flag them.
var EmptyFingerprint = Fingerprint("")

var (
	fencedBlockRe = regexp.MustCompile("(?s)```[a-zA-Z0-9_+-]*\\n?(.*?)```")
	lineCommentRe = regexp.MustCompile(`//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Fingerprint computes the stable content hash of the code embedded in
// text. Normalization proceeds in order:
//  1. extract fenced code blocks, concatenated in source order; if there
//     are none, the whole text is used,
//  2. strip line and block comments,
//  3. collapse whitespace runs to a single space and trim,
//  4. hash the normalized bytes and emit hex (identifiers stay
//     case-sensitive: no lowercasing is applied).
func Fingerprint(text string) string {
	normalized := Normalize(text)
	sum := xxhash.Sum64String(normalized)
	// xxhash.Sum64 is 64-bit; widen to 128 bits by hashing the digest of the
	// digest plus the original length, giving a wider, still-stable key
	// without pulling in a second hash algorithm.
	wide := xxhash.Sum64String(normalized + "|" + itoa(len(normalized)))

	buf := make([]byte, 16)
	putUint64(buf[0:8], sum)
	putUint64(buf[8:16], wide)
	return hex.EncodeToString(buf)
}

// Normalize applies the normalization rules without hashing, useful for
// diagnostics and for the "identical for semantically equivalent code"
// invariant tests.
func Normalize(text string) string {
	var body string
	matches := fencedBlockRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		body = text
	} else {
		parts := make([]string, 0, len(matches))
		for _, m := range matches {
			parts = append(parts, m[1])
		}
		body = strings.Join(parts, "\n")
	}

	body = blockCommentRe.ReplaceAllString(body, " ")
	body = lineCommentRe.ReplaceAllString(body, " ")
	body = whitespaceRe.ReplaceAllString(body, " ")
	return strings.TrimSpace(body)
}

func putUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (56 - 8*i))
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
