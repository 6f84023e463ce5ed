package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractInlineConfig_ValidGanConfigFence(t *testing.T) {
	text := "Let's tighten the bar.\n```gan-config\n{\"threshold\": 92, \"maxCycles\": 5}\n```\nAnd now the code."
	cfg := extractInlineConfig(text)
	require.NotNil(t, cfg)
	assert.Equal(t, float64(92), cfg.Threshold)
	assert.Equal(t, 5, cfg.MaxCycles)
}

func TestExtractInlineConfig_ValidJSONFence(t *testing.T) {
	text := "```json\n{\"threshold\": 70, \"candidates\": 2}\n```"
	cfg := extractInlineConfig(text)
	require.NotNil(t, cfg)
	assert.Equal(t, float64(70), cfg.Threshold)
	assert.Equal(t, 2, cfg.Candidates)
}

func TestExtractInlineConfig_EmptyBodyReturnsNil(t *testing.T) {
	text := "```gan-config\n\n```"
	assert.Nil(t, extractInlineConfig(text))
}

func TestExtractInlineConfig_NoFencedBlockReturnsNil(t *testing.T) {
	assert.Nil(t, extractInlineConfig("just a plain thought with no config at all"))
}

func TestExtractInlineConfig_RepairsCommentsAndTrailingCommas(t *testing.T) {
	text := "```gan-config\n" +
		"{\n" +
		"  // raise the bar for this session\n" +
		"  \"threshold\": 95,\n" +
		"  \"maxCycles\": 4, /* keep it tight */\n" +
		"}\n" +
		"```"
	cfg := extractInlineConfig(text)
	require.NotNil(t, cfg)
	assert.Equal(t, float64(95), cfg.Threshold)
	assert.Equal(t, 4, cfg.MaxCycles)
}

func TestExtractInlineConfig_RepairsSingleQuotedStrings(t *testing.T) {
	text := "```json\n{'task': 'tighten review', 'threshold': 80}\n```"
	cfg := extractInlineConfig(text)
	require.NotNil(t, cfg)
	assert.Equal(t, "tighten review", cfg.Task)
	assert.Equal(t, float64(80), cfg.Threshold)
}

func TestExtractInlineConfig_StillMalformedAfterRepairReturnsNil(t *testing.T) {
	text := "```gan-config\n{ this is not json at all ]\n```"
	assert.Nil(t, extractInlineConfig(text))
}

func TestExtractInlineConfig_ClampsOutOfRangeThreshold(t *testing.T) {
	text := "```gan-config\n{\"threshold\": 250, \"maxCycles\": 0}\n```"
	cfg := extractInlineConfig(text)
	require.NotNil(t, cfg)
	assert.Equal(t, float64(100), cfg.Threshold)
	assert.Equal(t, 1, cfg.MaxCycles)
}

func TestRepairJSON_StripsLineAndBlockComments(t *testing.T) {
	s := repairJSON("{\n// leading\n\"a\": 1 /* trailing */\n}")
	assert.NotContains(t, s, "//")
	assert.NotContains(t, s, "/*")
}

func TestSingleToDoubleQuoted_LeavesDoubleQuotedStringsAlone(t *testing.T) {
	s := singleToDoubleQuoted(`{"a": "it's fine"}`)
	assert.Equal(t, `{"a": "it's fine"}`, s)
}

func TestSingleToDoubleQuoted_ConvertsSingleQuoteDelimiters(t *testing.T) {
	s := singleToDoubleQuoted(`{'a': 'b'}`)
	assert.Equal(t, `{"a": "b"}`, s)
}
