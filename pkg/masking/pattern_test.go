package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompileBuiltinPatterns(t *testing.T) {
	svc := NewService(Config{Enabled: true})

	assert.Equal(t, len(builtinPatternDefs()), len(svc.patterns),
		"all built-in patterns should compile")

	for name, cp := range svc.patterns {
		assert.NotNil(t, cp.Regex, "pattern %s should have compiled regex", name)
		assert.NotEmpty(t, cp.Replacement, "pattern %s should have replacement", name)
	}
}

func TestResolveGroup_Expansion(t *testing.T) {
	svc := NewService(Config{Enabled: true})

	tests := []struct {
		name           string
		group          string
		minRegex       int
		hasCodeMaskers bool
	}{
		{name: "basic group", group: "basic", minRegex: 2},
		{name: "secrets group", group: "secrets", minRegex: 5},
		{name: "security group", group: "security", minRegex: 7},
		{name: "kubernetes group", group: "kubernetes", minRegex: 3, hasCodeMaskers: true},
		{name: "cloud group", group: "cloud", minRegex: 4},
		{name: "all group", group: "all", minRegex: 14},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := svc.resolveGroup(tt.group)
			assert.GreaterOrEqual(t, len(resolved.regexPatterns), tt.minRegex,
				"should have at least %d regex patterns", tt.minRegex)

			if tt.hasCodeMaskers {
				assert.Contains(t, resolved.codeMaskerNames, "structured_config")
			}
		})
	}
}

func TestResolveGroup_UnknownGroupIsEmpty(t *testing.T) {
	svc := NewService(Config{Enabled: true})
	resolved := svc.resolveGroup("nonexistent_group")
	assert.Empty(t, resolved.regexPatterns)
	assert.Empty(t, resolved.codeMaskerNames)
}
