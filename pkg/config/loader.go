package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/codeready-toolchain/ganaudit/pkg/audit"
	"github.com/codeready-toolchain/ganaudit/pkg/cache"
	"github.com/codeready-toolchain/ganaudit/pkg/cleanup"
	"github.com/codeready-toolchain/ganaudit/pkg/masking"
	"github.com/codeready-toolchain/ganaudit/pkg/queue"
	"github.com/codeready-toolchain/ganaudit/pkg/workflow"
)

// YAMLConfig represents the complete audit.yaml file structure. Every
// section is a pointer so an absent section in the user's file leaves
// the corresponding component entirely at its built-in defaults.
type YAMLConfig struct {
	LogLevel    string                 `yaml:"log_level"`
	Session     *SessionYAMLConfig     `yaml:"session"`
	Completion  *CompletionYAMLConfig  `yaml:"completion"`
	Cache       *CacheYAMLConfig       `yaml:"cache"`
	Queue       *QueueYAMLConfig       `yaml:"queue"`
	Workflow    *WorkflowYAMLConfig    `yaml:"workflow"`
	Masking     *MaskingYAMLConfig     `yaml:"masking"`
	Cleanup     *CleanupYAMLConfig     `yaml:"cleanup"`
	Persistence *PersistenceYAMLConfig `yaml:"persistence"`
	Server      *ServerYAMLConfig      `yaml:"server"`
}

// SessionYAMLConfig overrides audit.DefaultSessionConfig fields.
type SessionYAMLConfig struct {
	Scope      string   `yaml:"scope,omitempty"`
	Threshold  float64  `yaml:"threshold,omitempty"`
	MaxCycles  int      `yaml:"max_cycles,omitempty"`
	Candidates int      `yaml:"candidates,omitempty"`
	Judges     []string `yaml:"judges,omitempty"`
	ApplyFixes bool     `yaml:"apply_fixes,omitempty"`
}

// CompletionYAMLConfig overrides audit.DefaultCompletionCriteria fields.
type CompletionYAMLConfig struct {
	Tier1                      *TierYAMLConfig `yaml:"tier1,omitempty"`
	Tier2                      *TierYAMLConfig `yaml:"tier2,omitempty"`
	Tier3                      *TierYAMLConfig `yaml:"tier3,omitempty"`
	HardStopMaxLoops           int             `yaml:"hard_stop_max_loops,omitempty"`
	StagnationStartLoop        int             `yaml:"stagnation_start_loop,omitempty"`
	StagnationSimilarityThresh float64         `yaml:"stagnation_similarity_threshold,omitempty"`
}

// TierYAMLConfig is one completion tier's score/loop threshold pair.
type TierYAMLConfig struct {
	Score    float64 `yaml:"score,omitempty"`
	MaxLoops int     `yaml:"max_loops,omitempty"`
}

// CacheYAMLConfig overrides cache.DefaultConfig fields. Durations are
// strings so they can be hand-authored in YAML ("24h", "10m").
type CacheYAMLConfig struct {
	MaxEntries      int    `yaml:"max_entries,omitempty"`
	MaxMemoryUsage  int64  `yaml:"max_memory_usage,omitempty"`
	MaxAge          string `yaml:"max_age,omitempty"`
	CleanupInterval string `yaml:"cleanup_interval,omitempty"`
}

// QueueYAMLConfig overrides queue.DefaultConfig fields.
type QueueYAMLConfig struct {
	MaxConcurrent      int    `yaml:"max_concurrent,omitempty"`
	MaxQueueSize       int    `yaml:"max_queue_size,omitempty"`
	DefaultTimeout     string `yaml:"default_timeout,omitempty"`
	DefaultMaxRetries  int    `yaml:"default_max_retries,omitempty"`
	ProcessingInterval string `yaml:"processing_interval,omitempty"`
	EnableStats        *bool  `yaml:"enable_stats,omitempty"`
}

// WorkflowYAMLConfig overrides workflow.Config fields.
type WorkflowYAMLConfig struct {
	EnforceOrder      *bool `yaml:"enforce_order,omitempty"`
	AllowSkipping     *bool `yaml:"allow_skipping,omitempty"`
	ContinueOnFailure *bool `yaml:"continue_on_failure,omitempty"`
}

// MaskingYAMLConfig overrides masking.Config fields.
type MaskingYAMLConfig struct {
	Enabled      *bool  `yaml:"enabled,omitempty"`
	PatternGroup string `yaml:"pattern_group,omitempty"`
}

// CleanupYAMLConfig overrides cleanup.DefaultConfig fields.
type CleanupYAMLConfig struct {
	MaxSessionAge string `yaml:"max_session_age,omitempty"`
	Interval      string `yaml:"interval,omitempty"`
}

// PersistenceYAMLConfig selects and parameterizes the session store backend.
type PersistenceYAMLConfig struct {
	Driver      string `yaml:"driver,omitempty"`
	FileDir     string `yaml:"file_dir,omitempty"`
	PostgresDSN string `yaml:"postgres_dsn,omitempty"`
}

// ServerYAMLConfig controls the HTTP facade.
type ServerYAMLConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load audit.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into mirror structs
//  4. Resolve each component's config, applying built-in defaults for
//     anything the user omitted
//  5. Validate all configuration
//  6. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("configuration initialized successfully",
		"cache_max_entries", stats.CacheMaxEntries,
		"queue_max_concurrent", stats.QueueMaxConcurrent,
		"persistence_driver", stats.PersistenceDriver)

	return cfg, nil
}

func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadAuditYAML()
	if err != nil {
		return nil, NewLoadError("audit.yaml", err)
	}

	logLevel := yamlCfg.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		configDir:   configDir,
		LogLevel:    logLevel,
		Session:     resolveSessionConfig(yamlCfg.Session),
		Completion:  resolveCompletionConfig(yamlCfg.Completion),
		Cache:       resolveCacheConfig(yamlCfg.Cache),
		Queue:       resolveQueueConfig(yamlCfg.Queue),
		Workflow:    resolveWorkflowConfig(yamlCfg.Workflow),
		Masking:     resolveMaskingConfig(yamlCfg.Masking),
		Cleanup:     resolveCleanupConfig(yamlCfg.Cleanup),
		Persistence: resolvePersistenceConfig(yamlCfg.Persistence),
		Server:      resolveServerConfig(yamlCfg.Server),
	}, nil
}

func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand $VAR/${VAR} references before parsing so secrets (e.g. a
	// postgres DSN) don't need to live in the file itself.
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadAuditYAML() (*YAMLConfig, error) {
	var cfg YAMLConfig
	if err := l.loadYAML("audit.yaml", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveSessionConfig(y *SessionYAMLConfig) audit.SessionConfig {
	cfg := audit.DefaultSessionConfig()
	if y == nil {
		return cfg
	}
	if y.Scope != "" {
		cfg.Scope = audit.ContextScope(y.Scope)
	}
	if y.Threshold != 0 {
		cfg.Threshold = y.Threshold
	}
	if y.MaxCycles != 0 {
		cfg.MaxCycles = y.MaxCycles
	}
	if y.Candidates != 0 {
		cfg.Candidates = y.Candidates
	}
	if len(y.Judges) > 0 {
		cfg.Judges = y.Judges
	}
	if y.ApplyFixes {
		cfg.ApplyFixes = y.ApplyFixes
	}
	cfg.Clamp()
	return cfg
}

func resolveCompletionConfig(y *CompletionYAMLConfig) audit.CompletionCriteria {
	cfg := audit.DefaultCompletionCriteria()
	if y == nil {
		return cfg
	}
	if y.Tier1 != nil {
		applyTier(&cfg.Tier1, y.Tier1)
	}
	if y.Tier2 != nil {
		applyTier(&cfg.Tier2, y.Tier2)
	}
	if y.Tier3 != nil {
		applyTier(&cfg.Tier3, y.Tier3)
	}
	if y.HardStopMaxLoops != 0 {
		cfg.HardStop.MaxLoops = y.HardStopMaxLoops
	}
	if y.StagnationStartLoop != 0 {
		cfg.StagnationCheck.StartLoop = y.StagnationStartLoop
	}
	if y.StagnationSimilarityThresh != 0 {
		cfg.StagnationCheck.SimilarityThreshold = y.StagnationSimilarityThresh
	}
	return cfg
}

func applyTier(tier *audit.Tier, y *TierYAMLConfig) {
	if y.Score != 0 {
		tier.Score = y.Score
	}
	if y.MaxLoops != 0 {
		tier.MaxLoops = y.MaxLoops
	}
}

func resolveCacheConfig(y *CacheYAMLConfig) cache.Config {
	cfg := cache.DefaultConfig()
	if y == nil {
		return cfg
	}
	// Merge the plain numeric fields; mergo.WithOverride only replaces a
	// destination field when the source field is non-zero, which is
	// exactly the "user omitted it, keep the default" semantics we want.
	overlay := cache.Config{MaxEntries: y.MaxEntries, MaxMemoryUsage: y.MaxMemoryUsage}
	if err := mergo.Merge(&cfg, overlay, mergo.WithOverride); err != nil {
		slog.Warn("failed to merge cache config overrides, using defaults for those fields", "error", err)
	}
	if y.MaxAge != "" {
		if d, err := time.ParseDuration(y.MaxAge); err == nil {
			cfg.MaxAge = d
		} else {
			slog.Warn("invalid cache.max_age, using default", "value", y.MaxAge, "default", cfg.MaxAge, "error", err)
		}
	}
	if y.CleanupInterval != "" {
		if d, err := time.ParseDuration(y.CleanupInterval); err == nil {
			cfg.CleanupInterval = d
		} else {
			slog.Warn("invalid cache.cleanup_interval, using default", "value", y.CleanupInterval, "default", cfg.CleanupInterval, "error", err)
		}
	}
	return cfg
}

func resolveQueueConfig(y *QueueYAMLConfig) queue.Config {
	cfg := queue.DefaultConfig()
	if y == nil {
		return cfg
	}
	overlay := queue.Config{
		MaxConcurrent:     y.MaxConcurrent,
		MaxQueueSize:      y.MaxQueueSize,
		DefaultMaxRetries: y.DefaultMaxRetries,
	}
	if err := mergo.Merge(&cfg, overlay, mergo.WithOverride); err != nil {
		slog.Warn("failed to merge queue config overrides, using defaults for those fields", "error", err)
	}
	if y.DefaultTimeout != "" {
		if d, err := time.ParseDuration(y.DefaultTimeout); err == nil {
			cfg.DefaultTimeout = d
		} else {
			slog.Warn("invalid queue.default_timeout, using default", "value", y.DefaultTimeout, "default", cfg.DefaultTimeout, "error", err)
		}
	}
	if y.ProcessingInterval != "" {
		if d, err := time.ParseDuration(y.ProcessingInterval); err == nil {
			cfg.ProcessingInterval = d
		} else {
			slog.Warn("invalid queue.processing_interval, using default", "value", y.ProcessingInterval, "default", cfg.ProcessingInterval, "error", err)
		}
	}
	if y.EnableStats != nil {
		cfg.EnableStats = *y.EnableStats
	}
	return cfg
}

func resolveWorkflowConfig(y *WorkflowYAMLConfig) workflow.Config {
	cfg := workflow.Config{EnforceOrder: true}
	if y == nil {
		return cfg
	}
	if y.EnforceOrder != nil {
		cfg.EnforceOrder = *y.EnforceOrder
	}
	if y.AllowSkipping != nil {
		cfg.AllowSkipping = *y.AllowSkipping
	}
	if y.ContinueOnFailure != nil {
		cfg.ContinueOnFailure = *y.ContinueOnFailure
	}
	return cfg
}

func resolveMaskingConfig(y *MaskingYAMLConfig) masking.Config {
	cfg := masking.Config{Enabled: true, PatternGroup: "all"}
	if y == nil {
		return cfg
	}
	if y.Enabled != nil {
		cfg.Enabled = *y.Enabled
	}
	if y.PatternGroup != "" {
		cfg.PatternGroup = y.PatternGroup
	}
	return cfg
}

func resolveCleanupConfig(y *CleanupYAMLConfig) cleanup.Config {
	cfg := cleanup.DefaultConfig()
	if y == nil {
		return cfg
	}
	if y.MaxSessionAge != "" {
		if d, err := time.ParseDuration(y.MaxSessionAge); err == nil {
			cfg.MaxSessionAge = d
		} else {
			slog.Warn("invalid cleanup.max_session_age, using default", "value", y.MaxSessionAge, "default", cfg.MaxSessionAge, "error", err)
		}
	}
	if y.Interval != "" {
		if d, err := time.ParseDuration(y.Interval); err == nil {
			cfg.Interval = d
		} else {
			slog.Warn("invalid cleanup.interval, using default", "value", y.Interval, "default", cfg.Interval, "error", err)
		}
	}
	return cfg
}

func resolvePersistenceConfig(y *PersistenceYAMLConfig) PersistenceConfig {
	cfg := PersistenceConfig{Driver: PersistenceMemory}
	if y == nil {
		return cfg
	}
	if y.Driver != "" {
		cfg.Driver = PersistenceDriver(y.Driver)
	}
	cfg.FileDir = y.FileDir
	cfg.PostgresDSN = y.PostgresDSN
	return cfg
}

func resolveServerConfig(y *ServerYAMLConfig) ServerConfig {
	cfg := ServerConfig{Addr: ":8080"}
	if y != nil && y.Addr != "" {
		cfg.Addr = y.Addr
	}
	return cfg
}
