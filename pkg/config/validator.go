package config

import (
	"fmt"
)

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast - stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateSession(); err != nil {
		return fmt.Errorf("session validation failed: %w", err)
	}
	if err := v.validateCompletion(); err != nil {
		return fmt.Errorf("completion validation failed: %w", err)
	}
	if err := v.validateCache(); err != nil {
		return fmt.Errorf("cache validation failed: %w", err)
	}
	if err := v.validateQueue(); err != nil {
		return fmt.Errorf("queue validation failed: %w", err)
	}
	if err := v.validateWorkflow(); err != nil {
		return fmt.Errorf("workflow validation failed: %w", err)
	}
	if err := v.validateMasking(); err != nil {
		return fmt.Errorf("masking validation failed: %w", err)
	}
	if err := v.validateCleanup(); err != nil {
		return fmt.Errorf("cleanup validation failed: %w", err)
	}
	if err := v.validatePersistence(); err != nil {
		return fmt.Errorf("persistence validation failed: %w", err)
	}
	if err := v.validateServer(); err != nil {
		return fmt.Errorf("server validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateSession() error {
	s := v.cfg.Session
	if s.Threshold < 0 || s.Threshold > 100 {
		return NewValidationError("session", "default", "threshold",
			fmt.Errorf("must be between 0 and 100, got %v", s.Threshold))
	}
	if s.MaxCycles < 1 {
		return NewValidationError("session", "default", "max_cycles",
			fmt.Errorf("must be at least 1, got %d", s.MaxCycles))
	}
	if s.Candidates < 1 {
		return NewValidationError("session", "default", "candidates",
			fmt.Errorf("must be at least 1, got %d", s.Candidates))
	}
	if len(s.Judges) == 0 {
		return NewValidationError("session", "default", "judges",
			fmt.Errorf("at least one judge is required"))
	}
	return nil
}

func (v *Validator) validateCompletion() error {
	c := v.cfg.Completion
	tiers := []struct {
		name string
		loop int
	}{
		{"tier1", c.Tier1.MaxLoops},
		{"tier2", c.Tier2.MaxLoops},
		{"tier3", c.Tier3.MaxLoops},
	}
	prev := 0
	for _, t := range tiers {
		if t.loop <= prev {
			return NewValidationError("completion", "default", t.name+".max_loops",
				fmt.Errorf("tiers must have strictly increasing max_loops, got %d after %d", t.loop, prev))
		}
		prev = t.loop
	}
	if c.HardStop.MaxLoops <= c.Tier3.MaxLoops {
		return NewValidationError("completion", "default", "hard_stop.max_loops",
			fmt.Errorf("must exceed tier3.max_loops (%d), got %d", c.Tier3.MaxLoops, c.HardStop.MaxLoops))
	}
	if c.StagnationCheck.SimilarityThreshold <= 0 || c.StagnationCheck.SimilarityThreshold > 1 {
		return NewValidationError("completion", "default", "stagnation_check.similarity_threshold",
			fmt.Errorf("must be in (0, 1], got %v", c.StagnationCheck.SimilarityThreshold))
	}
	return nil
}

func (v *Validator) validateCache() error {
	c := v.cfg.Cache
	if c.MaxEntries < 0 {
		return NewValidationError("cache", "default", "max_entries",
			fmt.Errorf("must be non-negative, got %d", c.MaxEntries))
	}
	if c.MaxMemoryUsage < 0 {
		return NewValidationError("cache", "default", "max_memory_usage",
			fmt.Errorf("must be non-negative, got %d", c.MaxMemoryUsage))
	}
	if c.MaxAge < 0 {
		return NewValidationError("cache", "default", "max_age",
			fmt.Errorf("must be non-negative, got %v", c.MaxAge))
	}
	return nil
}

func (v *Validator) validateQueue() error {
	q := v.cfg.Queue
	if q.MaxConcurrent < 0 {
		return NewValidationError("queue", "default", "max_concurrent",
			fmt.Errorf("must be non-negative, got %d", q.MaxConcurrent))
	}
	if q.MaxQueueSize < 1 {
		return NewValidationError("queue", "default", "max_queue_size",
			fmt.Errorf("must be at least 1, got %d", q.MaxQueueSize))
	}
	if q.DefaultTimeout <= 0 {
		return NewValidationError("queue", "default", "default_timeout",
			fmt.Errorf("must be positive, got %v", q.DefaultTimeout))
	}
	if q.DefaultMaxRetries < 0 {
		return NewValidationError("queue", "default", "default_max_retries",
			fmt.Errorf("must be non-negative, got %d", q.DefaultMaxRetries))
	}
	if q.ProcessingInterval <= 0 {
		return NewValidationError("queue", "default", "processing_interval",
			fmt.Errorf("must be positive, got %v", q.ProcessingInterval))
	}
	return nil
}

func (v *Validator) validateWorkflow() error {
	// workflow.Config is three independent booleans; every combination is
	// structurally valid, so there is nothing to reject here. Kept as its
	// own step so a future constraint (e.g. ContinueOnFailure implying
	// AllowSkipping) has a natural home.
	return nil
}

func (v *Validator) validateMasking() error {
	m := v.cfg.Masking
	if m.Enabled && m.PatternGroup == "" {
		return NewValidationError("masking", "default", "pattern_group",
			fmt.Errorf("pattern_group is required when masking is enabled"))
	}
	return nil
}

func (v *Validator) validateCleanup() error {
	c := v.cfg.Cleanup
	if c.MaxSessionAge <= 0 {
		return NewValidationError("cleanup", "default", "max_session_age",
			fmt.Errorf("must be positive, got %v", c.MaxSessionAge))
	}
	if c.Interval <= 0 {
		return NewValidationError("cleanup", "default", "interval",
			fmt.Errorf("must be positive, got %v", c.Interval))
	}
	return nil
}

func (v *Validator) validatePersistence() error {
	p := v.cfg.Persistence
	switch p.Driver {
	case PersistenceMemory:
		return nil
	case PersistenceFile:
		if p.FileDir == "" {
			return NewValidationError("persistence", "default", "file_dir",
				fmt.Errorf("required when driver is '%s'", PersistenceFile))
		}
	case PersistencePostgres:
		if p.PostgresDSN == "" {
			return NewValidationError("persistence", "default", "postgres_dsn",
				fmt.Errorf("required when driver is '%s'", PersistencePostgres))
		}
	default:
		return NewValidationError("persistence", "default", "driver",
			fmt.Errorf("%w: '%s'", ErrUnknownPersistenceDriver, p.Driver))
	}
	return nil
}

func (v *Validator) validateServer() error {
	if v.cfg.Server.Addr == "" {
		return NewValidationError("server", "default", "addr",
			fmt.Errorf("must not be empty"))
	}
	return nil
}
