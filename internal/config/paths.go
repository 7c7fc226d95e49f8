// Path resolution for the configuration directory and the shared mirror
// database file.
package config

import (
	"os"
	"path/filepath"
)

// CWD-relative directory name holding config.yaml and the default mirror
// location. The desktop application uses the same directory.
const DefaultConfigDirName = ".driftpress"

// DefaultDBFileName is the mirror database file inside the config directory.
const DefaultDBFileName = "mirror.db"

// Environment variable overrides.
const (
	EnvConfigDir = "DRIFTPRESS_CONFIG_DIR"
	EnvDBPath    = "DRIFTPRESS_DB_PATH"
)

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > DRIFTPRESS_CONFIG_DIR env > $(CWD)/.driftpress.
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultConfigDirName), nil
}

// ResolveDBPath returns the mirror database path following the precedence
// chain: flag > config.yaml db_path > DRIFTPRESS_DB_PATH env > the default
// location inside the config directory.
func ResolveDBPath(flag, configValue, configDir string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if configValue != "" {
		return filepath.Abs(configValue)
	}
	if env := os.Getenv(EnvDBPath); env != "" {
		return filepath.Abs(env)
	}
	return filepath.Join(configDir, DefaultDBFileName), nil
}
