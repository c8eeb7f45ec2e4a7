package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Medium.Attach.
type Config struct {
	Backend       string        `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir       string        `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SyncStrategy  string        `json:"sync_strategy,omitempty" yaml:"sync_strategy,omitempty" mapstructure:"sync_strategy"`
	BatchSize     int           `json:"batch_size,omitempty" yaml:"batch_size,omitempty" mapstructure:"batch_size"`
	BatchInterval time.Duration `json:"batch_interval,omitempty" yaml:"batch_interval,omitempty" mapstructure:"batch_interval"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Sync strategies control when SQLite writes reach the database file.
// Reads always observe the latest write in-process regardless of strategy.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults applied by the getters below when a field is unset.
const (
	DefaultBatchSize     = 64
	DefaultBatchInterval = 2 * time.Second
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

var knownSyncStrategies = map[string]bool{
	"":            true,
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if !knownSyncStrategies[c.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}

// GetSyncStrategy returns the effective sync strategy, defaulting to immediate.
func (c Config) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the number of queued writes that triggers a flush.
func (c Config) GetBatchSize() int {
	if c.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the period between background flushes.
func (c Config) GetBatchInterval() time.Duration {
	if c.BatchInterval <= 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}
