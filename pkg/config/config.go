// Package config loads and validates the orchestrator's YAML
// configuration: session/completion defaults, cache/queue/workflow
// budgets, the masking pattern group, retention policy, and which
// session.Persister backend to wire up. Same shape as the loader this
// package is descended from — YAML + env-var expansion, built-in
// defaults merged under user overrides, fail-fast validation — just
// repurposed onto the audit domain's components instead of
// agent/chain/MCP configuration.
package config

import (
	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/cache"
	"github.com/codeready-toolchain/ganaudit/pkg/cleanup"
	"github.com/codeready-toolchain/ganaudit/pkg/masking"
	"github.com/codeready-toolchain/ganaudit/pkg/queue"
	"github.com/codeready-toolchain/ganaudit/pkg/workflow"
)

// PersistenceDriver selects the session.Persister backend.
type PersistenceDriver string

const (
	PersistenceMemory   PersistenceDriver = "memory" // no durable persister; session state lives only in-process
	PersistenceFile     PersistenceDriver = "file"
	PersistencePostgres PersistenceDriver = "postgres"
)

// PersistenceConfig selects and parameterizes the durable session store.
type PersistenceConfig struct {
	Driver      PersistenceDriver
	FileDir     string // used when Driver == PersistenceFile
	PostgresDSN string // used when Driver == PersistencePostgres
}

// ServerConfig controls the HTTP facade's listen address.
type ServerConfig struct {
	Addr string
}

// Config is the umbrella configuration object returned by Initialize,
// encapsulating every component's resolved settings.
type Config struct {
	configDir string

	Session     audit.SessionConfig
	Completion  audit.CompletionCriteria
	Cache       cache.Config
	Queue       queue.Config
	Workflow    workflow.Config
	Masking     masking.Config
	Cleanup     cleanup.Config
	Persistence PersistenceConfig
	Server      ServerConfig
	LogLevel    string
}

// ConfigDir returns the directory Initialize loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// Stats summarizes loaded configuration for startup logging.
type Stats struct {
	CacheMaxEntries    int
	QueueMaxConcurrent int
	PersistenceDriver  PersistenceDriver
}

// Stats returns configuration statistics for logging/monitoring.
func (c *Config) Stats() Stats {
	return Stats{
		CacheMaxEntries:    c.Cache.MaxEntries,
		QueueMaxConcurrent: c.Queue.MaxConcurrent,
		PersistenceDriver:  c.Persistence.Driver,
	}
}
