// Package config loads tool-server configuration from config.yaml and the
// environment. The server shares its config directory with the desktop
// application; only the keys below are read here.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys.
	cfgKeyToolsEnabled  = "tools.enabled"
	cfgKeyDBPath        = "db_path"
	cfgKeyLockTimeoutMS = "lock_timeout_ms"

	// Lock-wait default. A second process may hold a write lock briefly
	// during its sync cycle, so several seconds of patience is normal.
	defaultLockTimeoutMS = 5000
)

// EnvToolsEnabled force-enables the tool server regardless of config.yaml,
// for launcher processes that cannot edit the config file.
const EnvToolsEnabled = "DRIFTPRESS_TOOLS_ENABLED"

// Config holds the resolved tool-server settings.
type Config struct {
	// ToolsEnabled is the startup gate. The server refuses to start when
	// false.
	ToolsEnabled bool

	// DBPath is the shared mirror database file. The file must already
	// exist; schema creation belongs to the sync process.
	DBPath string

	// LockTimeout bounds how long a transaction waits on a write lock held
	// by the other process before surfacing a lock error.
	LockTimeout time.Duration
}

// Load reads config.yaml from configDir and applies environment overrides.
// A missing config.yaml is not an error; defaults apply.
func Load(configDir, dbPathFlag string) (Config, error) {
	v := viper.New()
	v.SetDefault(cfgKeyToolsEnabled, false)
	v.SetDefault(cfgKeyLockTimeoutMS, defaultLockTimeoutMS)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("driftpress")
	if err := v.BindEnv(cfgKeyToolsEnabled, EnvToolsEnabled); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		// Missing config.yaml falls back to defaults and env.
	}

	dbPath, err := ResolveDBPath(dbPathFlag, v.GetString(cfgKeyDBPath), configDir)
	if err != nil {
		return Config{}, fmt.Errorf("resolve db path: %w", err)
	}

	lockMS := v.GetInt(cfgKeyLockTimeoutMS)
	if lockMS <= 0 {
		lockMS = defaultLockTimeoutMS
	}

	return Config{
		ToolsEnabled: v.GetBool(cfgKeyToolsEnabled),
		DBPath:       dbPath,
		LockTimeout:  time.Duration(lockMS) * time.Millisecond,
	}, nil
}

// GateMessage is the diagnostic printed when the startup gate is closed. It
// names the exact switches that open it.
func GateMessage() string {
	return fmt.Sprintf(
		"tool server is disabled: set %q to true in config.yaml or export %s=true",
		cfgKeyToolsEnabled, EnvToolsEnabled,
	)
}
