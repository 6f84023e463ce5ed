package masking

import (
	"log/slog"
	"regexp"
)

// patternDef is the uncompiled form of a built-in pattern, checked in as a
// plain literal so compileBuiltinPatterns can validate it at startup instead
// of trusting a config file that might not parse.
type patternDef struct {
	name        string
	pattern     string
	replacement string
	description string
}

// builtinPatternDefs lists the regex-based secret patterns scrubbed from
// code, diffs, and review text before anything is logged or persisted.
// These are general-purpose credential shapes, not tied to one language or
// cloud provider.
func builtinPatternDefs() []patternDef {
	return []patternDef{
		{"api_key", `(?i)(?:api[_-]?key|apikey|key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-]{20,})["\']?`, `"api_key": "[MASKED_API_KEY]"`, "API keys"},
		{"password", `(?i)(?:password|pwd|pass)["\']?\s*[:=]\s*["\']?([^"\'\s\n]{6,})["\']?`, `"password": "[MASKED_PASSWORD]"`, "Passwords"},
		{"certificate", `(?s)-----BEGIN [A-Z ]+-----.*?-----END [A-Z ]+-----`, `[MASKED_CERTIFICATE]`, "SSL/TLS certificates"},
		{"certificate_authority_data", `(?i)certificate-authority-data:\s*([A-Za-z0-9+/]{20,}={0,2})`, `certificate-authority-data: [MASKED_CA_CERTIFICATE]`, "K8s CA data"},
		{"token", `(?i)(?:token|bearer|jwt)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`, `"token": "[MASKED_TOKEN]"`, "Access tokens"},
		{"email", `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9]+(?:[.-][A-Za-z0-9]+)*\.[A-Za-z]{2,63}\b`, `[MASKED_EMAIL]`, "Email addresses"},
		{"ssh_key", `ssh-(?:rsa|dss|ed25519|ecdsa)\s+[A-Za-z0-9+/=]+`, `[MASKED_SSH_KEY]`, "SSH public keys"},
		{"base64_secret", `\b([A-Za-z0-9+/]{20,}={0,2})\b`, `[MASKED_BASE64_VALUE]`, "Base64 values (20+ chars)"},
		{"private_key", `(?i)(?:private[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`, `"private_key": "[MASKED_PRIVATE_KEY]"`, "Private keys"},
		{"secret_key", `(?i)(?:secret[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9_\-\.]{20,})["\']?`, `"secret_key": "[MASKED_SECRET_KEY]"`, "Secret keys"},
		{"aws_access_key", `(?i)(?:aws[_-]?access[_-]?key[_-]?id)["\']?\s*[:=]\s*["\']?(AKIA[A-Z0-9]{16})["\']?`, `"aws_access_key_id": "[MASKED_AWS_KEY]"`, "AWS access keys"},
		{"aws_secret_key", `(?i)(?:aws[_-]?secret[_-]?access[_-]?key)["\']?\s*[:=]\s*["\']?([A-Za-z0-9/+=]{40})["\']?`, `"aws_secret_access_key": "[MASKED_AWS_SECRET]"`, "AWS secret keys"},
		{"github_token", `(?i)(?:github[_-]?token|gh[ps]_[A-Za-z0-9_]{36,255})`, `[MASKED_GITHUB_TOKEN]`, "GitHub tokens"},
		{"slack_token", `(?i)xox[baprs]-[A-Za-z0-9-]{10,72}`, `[MASKED_SLACK_TOKEN]`, "Slack tokens"},
	}
}

// CompiledPattern holds a pre-compiled regex pattern with its replacement.
type CompiledPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Description string
}

// builtinPatternGroups maps a group name to the pattern/code-masker names it
// expands to. "structured_config" is a code-based masker (see
// structured_config.go); everything else resolves against
// builtinPatternDefs.
func builtinPatternGroups() map[string][]string {
	return map[string][]string{
		"basic":      {"api_key", "password"},
		"secrets":    {"api_key", "password", "token", "private_key", "secret_key"},
		"security":   {"api_key", "password", "token", "certificate", "certificate_authority_data", "email", "ssh_key"},
		"kubernetes": {"structured_config", "api_key", "password", "certificate_authority_data"},
		"cloud":      {"aws_access_key", "aws_secret_key", "api_key", "token"},
		"all": {
			"base64_secret", "api_key", "password", "certificate", "certificate_authority_data",
			"email", "token", "ssh_key", "private_key", "secret_key", "aws_access_key",
			"aws_secret_key", "github_token", "slack_token", "structured_config",
		},
	}
}

// resolvedPatterns holds the resolved set of maskers and patterns for a
// single scrub operation.
type resolvedPatterns struct {
	codeMaskerNames []string
	regexPatterns   []*CompiledPattern
}

// compileBuiltinPatterns compiles every built-in regex pattern. Invalid
// patterns are logged and skipped rather than failing startup.
func (s *Service) compileBuiltinPatterns() {
	for _, def := range builtinPatternDefs() {
		compiled, err := regexp.Compile(def.pattern)
		if err != nil {
			slog.Error("failed to compile built-in masking pattern, skipping",
				"pattern", def.name, "error", err)
			continue
		}
		s.patterns[def.name] = &CompiledPattern{
			Name:        def.name,
			Regex:       compiled,
			Replacement: def.replacement,
			Description: def.description,
		}
	}
}

// resolveGroup expands a pattern group name into a resolvedPatterns, falling
// back to an empty result for an unknown group.
func (s *Service) resolveGroup(groupName string) *resolvedPatterns {
	resolved := &resolvedPatterns{}
	for _, name := range s.patternGroups[groupName] {
		if _, isCodeMasker := s.codeMaskers[name]; isCodeMasker {
			resolved.codeMaskerNames = append(resolved.codeMaskerNames, name)
			continue
		}
		if cp, ok := s.patterns[name]; ok {
			resolved.regexPatterns = append(resolved.regexPatterns, cp)
		}
	}
	return resolved
}
