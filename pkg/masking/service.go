// Package masking scrubs secrets (API keys, tokens, certificates, and the
// like) out of code, diffs, and review text before it is logged or
// persisted. Adapted from the pattern-table/code-masker masking service
// used to redact MCP tool results and alert payloads: the compiled-regex
// table and the structural Masker interface carry over unchanged, while the
// per-MCP-server registry and custom-pattern wiring are replaced with a
// single process-wide scrub used by the audit cache and orchestrator.
package masking

import "log/slog"

// Config controls which pattern group a Service scrubs with.
type Config struct {
	Enabled      bool
	PatternGroup string // defaults to "all" when empty
}

// Service applies data masking to audit text (thought content, diffs,
// judge-review summaries) before it reaches a log sink or a durable store.
// Created once at startup (singleton). Thread-safe and stateless aside from
// its compiled patterns.
type Service struct {
	cfg           Config
	patterns      map[string]*CompiledPattern
	patternGroups map[string][]string
	codeMaskers   map[string]Masker
}

// NewService creates a masking service with every built-in pattern compiled
// eagerly. Invalid patterns are logged and skipped rather than failing
// startup.
func NewService(cfg Config) *Service {
	if cfg.PatternGroup == "" {
		cfg.PatternGroup = "all"
	}

	s := &Service{
		cfg:           cfg,
		patterns:      make(map[string]*CompiledPattern),
		patternGroups: builtinPatternGroups(),
		codeMaskers:   make(map[string]Masker),
	}

	s.compileBuiltinPatterns()
	s.registerMasker(&StructuredConfigMasker{})

	slog.Info("masking service initialized",
		"builtin_patterns", len(s.patterns),
		"code_maskers", len(s.codeMaskers),
		"enabled", cfg.Enabled,
		"pattern_group", cfg.PatternGroup)

	return s
}

// Scrub redacts secrets from text using the configured pattern group.
// Fail-open: a masking error leaves text unmodified rather than blocking the
// audit pipeline, since this runs on the logging path, not the decision
// path.
func (s *Service) Scrub(text string) string {
	if !s.cfg.Enabled || text == "" {
		return text
	}

	resolved := s.resolveGroup(s.cfg.PatternGroup)
	if len(resolved.codeMaskerNames) == 0 && len(resolved.regexPatterns) == 0 {
		return text
	}

	masked, err := s.applyMasking(text, resolved)
	if err != nil {
		slog.Error("masking failed, continuing with unmasked text (fail-open)", "error", err)
		return text
	}
	return masked
}

// applyMasking applies code-based maskers (structural, more specific) then
// regex patterns (a general sweep) to text.
func (s *Service) applyMasking(text string, resolved *resolvedPatterns) (string, error) {
	masked := text

	for _, name := range resolved.codeMaskerNames {
		masker, ok := s.codeMaskers[name]
		if !ok {
			continue
		}
		if masker.AppliesTo(masked) {
			masked = masker.Mask(masked)
		}
	}

	for _, pattern := range resolved.regexPatterns {
		masked = pattern.Regex.ReplaceAllString(masked, pattern.Replacement)
	}

	return masked, nil
}

// registerMasker registers a code-based masker by its name.
func (s *Service) registerMasker(m Masker) {
	s.codeMaskers[m.Name()] = m
}
