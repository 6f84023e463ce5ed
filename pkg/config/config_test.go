package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestDefault_Stats(t *testing.T) {
	cfg := Default()
	stats := cfg.Stats()
	assert.Equal(t, cfg.Cache.MaxEntries, stats.CacheMaxEntries)
	assert.Equal(t, cfg.Queue.MaxConcurrent, stats.QueueMaxConcurrent)
	assert.Equal(t, PersistenceMemory, stats.PersistenceDriver)
}
