package config

// Default returns the built-in Config used when no YAML file is present
// or Initialize is bypassed (e.g. in tests or a CLI invoked with no
// --config-dir flag).
func Default() *Config {
	return &Config{
		LogLevel:    "info",
		Session:     resolveSessionConfig(nil),
		Completion:  resolveCompletionConfig(nil),
		Cache:       resolveCacheConfig(nil),
		Queue:       resolveQueueConfig(nil),
		Workflow:    resolveWorkflowConfig(nil),
		Masking:     resolveMaskingConfig(nil),
		Cleanup:     resolveCleanupConfig(nil),
		Persistence: resolvePersistenceConfig(nil),
		Server:      resolveServerConfig(nil),
	}
}
