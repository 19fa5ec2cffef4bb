// Package settings provides overture's own tool-level preferences using Viper.
//
// These are preferences about how the tool behaves (backup retention, default
// clients, log format), not the declarative MCP model — that lives in the
// config package with its own strict loader.
package settings

import (
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/jander99/overture-sub000/internal/errors"
	"github.com/jander99/overture-sub000/internal/paths"
)

// Settings represents the top-level tool preference structure.
type Settings struct {
	Version        int      `mapstructure:"version" yaml:"version"`
	LogFormat      string   `mapstructure:"log_format" yaml:"log_format"`
	BackupDir      string   `mapstructure:"backup_dir" yaml:"backup_dir"`
	BackupRetain   int      `mapstructure:"backup_retain" yaml:"backup_retain"`
	DefaultClients []string `mapstructure:"default_clients" yaml:"default_clients"`
}

var initOnce sync.Once

// Init initializes Viper with defaults and search paths. Load runs it
// automatically; call it directly only when reading keys through viper
// without going through Load.
func Init() {
	initOnce.Do(doInit)
}

func doInit() {
	viper.SetConfigName("settings")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(filepath.Join(paths.ConfigHome(), paths.AppName))

	viper.SetEnvPrefix("OVERTURE")
	viper.AutomaticEnv()

	viper.SetDefault("version", 1)
	viper.SetDefault("log_format", "text")
	viper.SetDefault("backup_dir", paths.BackupDir())
	viper.SetDefault("backup_retain", 10)
	viper.SetDefault("default_clients", nil)
}

// Load reads the settings file.
// If path is provided, it reads from that specific file; otherwise it
// searches in the default locations, and a missing file yields defaults.
func Load(path string) (*Settings, error) {
	Init()
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if path != "" {
				return nil, errors.Wrapf(err, "settings file not found at %s", path)
			}
			// Implicit load with no file: defaults apply.
		} else {
			return nil, errors.Wrap(err, "reading settings file")
		}
	}

	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, errors.Wrap(err, "unmarshaling settings")
	}

	return &s, nil
}
