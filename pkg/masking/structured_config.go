package masking

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaskedStructuredValue is the replacement string for masked fields found
// inside a structured (YAML/JSON) document.
const MaskedStructuredValue = "[MASKED_CONFIG_VALUE]"

// sensitiveFieldPattern matches map keys that commonly carry secret
// material inside config-shaped documents a review candidate might embed:
// Kubernetes Secret data/stringData, .env-as-JSON blocks, CI pipeline
// credential stanzas, docker-compose environment maps.
var sensitiveFieldPattern = regexp.MustCompile(`(?i)^(?:data|stringdata|password|passwd|secret|token|apikey|api[_-]?key|clientsecret|client[_-]?secret|privatekey|private[_-]?key|accesskey|access[_-]?key|credentials?)$`)

// structuredLooksSensitive is a cheap pre-check run before attempting a full
// parse: a document worth walking has both config-file structure (a colon or
// brace) and at least one sensitive-looking field name in it.
var structuredLooksSensitive = regexp.MustCompile(`(?i)\b(?:data|stringData|password|secret|token|apiKey|api_key|clientSecret|privateKey|accessKey|credentials?)\s*:`)

// StructuredConfigMasker masks secret-shaped fields embedded in structured
// YAML/JSON documents — Kubernetes manifests, CI config, docker-compose
// files, .env-as-JSON blocks — that a review candidate or its context pack
// may quote in full, as opposed to the single-line `key: value` shapes the
// regex patterns in pattern.go already cover.
type StructuredConfigMasker struct{}

// Name returns the unique identifier for this masker.
func (m *StructuredConfigMasker) Name() string { return "structured_config" }

// AppliesTo performs a lightweight check on whether this masker should
// process the data.
func (m *StructuredConfigMasker) AppliesTo(data string) bool {
	return structuredLooksSensitive.MatchString(data)
}

// Mask applies structured masking logic. Detects JSON vs YAML and applies
// the appropriate parser. Returns original data on parse/processing errors
// (defensive) — this runs on review candidates, which are source code far
// more often than they are valid YAML/JSON.
func (m *StructuredConfigMasker) Mask(data string) string {
	trimmed := strings.TrimSpace(data)

	// Try JSON first when input looks like JSON (starts with { or [). This
	// prevents the YAML parser from consuming JSON and re-serializing it as
	// YAML.
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		if masked := m.maskJSON(data); masked != data {
			return masked
		}
	}

	// Try YAML (handles multi-document with --- separators).
	if masked := m.maskYAML(data); masked != data {
		return masked
	}

	return data
}

// maskYAML parses multi-document YAML and masks sensitive fields anywhere
// in the tree.
func (m *StructuredConfigMasker) maskYAML(data string) string {
	decoder := yaml.NewDecoder(strings.NewReader(data))
	var documents []any
	anyMasked := false

	for {
		var doc any
		err := decoder.Decode(&doc)
		if err == io.EOF {
			break
		}
		if err != nil {
			return data // parse error — return original (defensive)
		}
		if doc == nil {
			continue
		}

		if maskSensitiveFields(doc) {
			anyMasked = true
		}
		documents = append(documents, doc)
	}

	if !anyMasked || len(documents) == 0 {
		return data
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	for _, doc := range documents {
		if err := encoder.Encode(doc); err != nil {
			return data
		}
	}
	if err := encoder.Close(); err != nil {
		return data
	}

	result := strings.TrimRight(buf.String(), "\n")
	if strings.HasSuffix(data, "\n") {
		result += "\n"
	}
	return result
}

// maskJSON parses a JSON document and masks sensitive fields anywhere in
// the tree.
func (m *StructuredConfigMasker) maskJSON(data string) string {
	var doc any
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return data // not valid JSON — return original
	}

	if !maskSensitiveFields(doc) {
		return data
	}

	result, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return data
	}

	output := string(result)
	if strings.HasSuffix(data, "\n") {
		output += "\n"
	}
	return output
}

// maskSensitiveFields walks a parsed YAML/JSON value recursively, replacing
// the value of any map key matching sensitiveFieldPattern with
// MaskedStructuredValue. Reports whether anything was masked.
func maskSensitiveFields(node any) bool {
	masked := false
	switch v := node.(type) {
	case map[string]any:
		for key, val := range v {
			if sensitiveFieldPattern.MatchString(key) {
				if nested, ok := val.(map[string]any); ok {
					for nestedKey := range nested {
						nested[nestedKey] = MaskedStructuredValue
					}
					masked = true
					continue
				}
				v[key] = MaskedStructuredValue
				masked = true
				continue
			}
			if maskSensitiveFields(val) {
				masked = true
			}
		}
	case []any:
		for _, item := range v {
			if maskSensitiveFields(item) {
				masked = true
			}
		}
	}
	return masked
}
