package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAll_DefaultConfigPasses(t *testing.T) {
	assert.NoError(t, NewValidator(Default()).ValidateAll())
}

func TestValidateSession_RejectsOutOfRangeThreshold(t *testing.T) {
	cfg := Default()
	cfg.Session.Threshold = 150
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session validation failed")
}

func TestValidateSession_RejectsZeroJudges(t *testing.T) {
	cfg := Default()
	cfg.Session.Judges = nil
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "judges")
}

func TestValidateCompletion_RejectsNonIncreasingTiers(t *testing.T) {
	cfg := Default()
	cfg.Completion.Tier2.MaxLoops = cfg.Completion.Tier1.MaxLoops
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tier2")
}

func TestValidateCompletion_RejectsHardStopBelowTier3(t *testing.T) {
	cfg := Default()
	cfg.Completion.HardStop.MaxLoops = cfg.Completion.Tier3.MaxLoops
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hard_stop")
}

func TestValidateCache_RejectsNegativeMaxEntries(t *testing.T) {
	cfg := Default()
	cfg.Cache.MaxEntries = -1
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache validation failed")
}

func TestValidateQueue_RejectsZeroMaxQueueSize(t *testing.T) {
	cfg := Default()
	cfg.Queue.MaxQueueSize = 0
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue validation failed")
}

func TestValidateQueue_RejectsNonPositiveTimeout(t *testing.T) {
	cfg := Default()
	cfg.Queue.DefaultTimeout = 0
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_timeout")
}

func TestValidateMasking_RequiresPatternGroupWhenEnabled(t *testing.T) {
	cfg := Default()
	cfg.Masking.Enabled = true
	cfg.Masking.PatternGroup = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pattern_group")
}

func TestValidateMasking_DisabledSkipsPatternGroupCheck(t *testing.T) {
	cfg := Default()
	cfg.Masking.Enabled = false
	cfg.Masking.PatternGroup = ""
	assert.NoError(t, NewValidator(cfg).ValidateAll())
}

func TestValidateCleanup_RejectsNonPositiveInterval(t *testing.T) {
	cfg := Default()
	cfg.Cleanup.Interval = 0
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cleanup validation failed")
}

func TestValidatePersistence_FileDriverRequiresFileDir(t *testing.T) {
	cfg := Default()
	cfg.Persistence.Driver = PersistenceFile
	cfg.Persistence.FileDir = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file_dir")
}

func TestValidatePersistence_PostgresDriverRequiresDSN(t *testing.T) {
	cfg := Default()
	cfg.Persistence.Driver = PersistencePostgres
	cfg.Persistence.PostgresDSN = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres_dsn")
}

func TestValidatePersistence_UnknownDriverRejected(t *testing.T) {
	cfg := Default()
	cfg.Persistence.Driver = "rocksdb"
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownPersistenceDriver)
}

func TestValidateServer_RejectsEmptyAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.Addr = ""
	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server validation failed")
}

func TestValidateAll_FailsFastOnFirstError(t *testing.T) {
	cfg := Default()
	cfg.Session.Threshold = -5
	cfg.Cache.MaxEntries = -1 // would also fail, but session is validated first

	err := NewValidator(cfg).ValidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session validation failed")
}
