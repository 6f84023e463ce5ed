package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
)

// ganConfigFence matches the first fenced block labeled gan-config or
// json anywhere in a thought's text.
var ganConfigFence = regexp.MustCompile("(?s)```(?:gan-config|json)\\s*\\n(.*?)```")

// extractInlineConfig looks for the first ```gan-config or ```json
// fenced block in text and parses it into a SessionConfig override. It
// returns nil when no such block exists, the block is empty, or the
// block still doesn't parse after a best-effort repair pass — a
// malformed inline config is silently ignored rather than failing the
// whole audit.
func extractInlineConfig(text string) *audit.SessionConfig {
	m := ganConfigFence.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	body := strings.TrimSpace(m[1])
	if body == "" {
		return nil
	}

	var cfg audit.SessionConfig
	if err := json.Unmarshal([]byte(body), &cfg); err == nil {
		cfg.Clamp()
		return &cfg
	}

	if err := json.Unmarshal([]byte(repairJSON(body)), &cfg); err != nil {
		return nil
	}
	cfg.Clamp()
	return &cfg
}

var (
	blockCommentPattern  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentPattern   = regexp.MustCompile(`//[^\n]*`)
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// repairJSON applies a best-effort cleanup pass to near-JSON text that
// failed to parse as-is: strips // and /* */ comments, drops trailing
// commas before a closing brace/bracket, and turns single-quoted
// strings into double-quoted ones.
func repairJSON(s string) string {
	s = blockCommentPattern.ReplaceAllString(s, "")
	s = lineCommentPattern.ReplaceAllString(s, "")
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return singleToDoubleQuoted(s)
}

// singleToDoubleQuoted rewrites single-quoted string delimiters to
// double quotes, leaving already-double-quoted spans untouched. Good
// enough for the common "sloppy JSON" case this repair pass targets;
// it does not attempt to handle escaped quotes within single-quoted
// strings.
func singleToDoubleQuoted(s string) string {
	if !strings.ContainsRune(s, '\'') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inDouble = !inDouble
			b.WriteByte('"')
		case '\'':
			if inDouble {
				b.WriteByte('\'')
			} else {
				b.WriteByte('"')
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
