// Package paths resolves where prefstore keeps its config file and its
// database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName names the per-user directories.
const AppName = "prefstore"

// Environment variables that override the platform defaults.
const (
	EnvConfigDir = "PREFSTORE_CONFIG_DIR"
	EnvDataDir   = "PREFSTORE_DATA_DIR"
)

// ConfigFileName is the file read from the config directory.
const ConfigFileName = "config.yaml"

// platform holds lookups that tests override.
var platform = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the per-user config directory:
// $XDG_CONFIG_HOME/prefstore or ~/.config/prefstore on Linux, and
// os.UserConfigDir()/prefstore elsewhere.
func DefaultConfigDir() (string, error) {
	return userDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory:
// $XDG_DATA_HOME/prefstore or ~/.local/share/prefstore on Linux, and the
// config directory elsewhere.
func DefaultDataDir() (string, error) {
	return userDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func userDir(xdgEnv, homeRel string) (string, error) {
	if platform.goos != "linux" {
		dir, err := platform.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, AppName), nil
	}
	if xdg := os.Getenv(xdgEnv); xdg != "" {
		return filepath.Join(xdg, AppName), nil
	}
	home, err := platform.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, AppName), nil
}

// ResolveConfigDir applies flag > PREFSTORE_CONFIG_DIR > platform default.
// Overrides are made absolute.
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir applies flag > PREFSTORE_DATA_DIR > data_dir from
// config.yaml > platform default.
func ResolveDataDir(flag, configValue string) (string, error) {
	return firstAbs(DefaultDataDir, flag, os.Getenv(EnvDataDir), configValue)
}

func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
