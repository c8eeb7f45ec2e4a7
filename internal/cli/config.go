package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/prefstore/internal/paths"
	"github.com/mesh-intelligence/prefstore/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "PREFSTORE"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeySyncStrategy  = "sync_strategy"
	cfgKeyBatchSize     = "batch_size"
	cfgKeyBatchInterval = "batch_interval"
	cfgKeyLogLevel      = "log_level"
	cfgKeyDefaultsFile  = "defaults_file"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# prefstore configuration

# Storage backend: sqlite or memory
backend: sqlite

# Data directory (optional; overridden by --data-dir and PREFSTORE_DATA_DIR)
# data_dir:

# When sqlite writes reach the database: immediate, on_close or batch
sync_strategy: immediate

# batch_size: 64
# batch_interval: 2s

# debug, info, warn or error
log_level: warn

# YAML file replacing the built-in setting defaults (optional)
# defaults_file:
`

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. Every key can be overridden by a PREFSTORE_
// environment variable.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeDefaultConfig(filepath.Join(configDir, paths.ConfigFileName)); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeySyncStrategy, types.SyncImmediate)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// writeDefaultConfig creates path unless it already exists.
func writeDefaultConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// storeConfig builds the medium config from viper and the --data-dir flag.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.Config{
		Backend:       a.config.GetString(cfgKeyBackend),
		DataDir:       dataDir,
		SyncStrategy:  a.config.GetString(cfgKeySyncStrategy),
		BatchSize:     a.config.GetInt(cfgKeyBatchSize),
		BatchInterval: a.config.GetDuration(cfgKeyBatchInterval),
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
