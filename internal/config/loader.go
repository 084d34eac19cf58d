package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Ning0612/Devicesync/internal/domain"
)

// DefaultWatchInterval is applied when the watch section omits an interval
const DefaultWatchInterval = 5 * time.Minute

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	// Add user config directory
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "devicesync"))
	}

	// Add home directory
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "devicesync"))
		paths = append(paths, filepath.Join(homeDir, ".devicesync"))
	}

	return paths
}

// Load reads and parses a configuration file
// If path is empty, searches default locations for config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		// Use specific file
		v.SetConfigFile(path)
	} else {
		// Search default paths
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return finish(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	// Set defaults
	for i := range cfg.Devices {
		if cfg.Devices[i].Platform == "" {
			cfg.Devices[i].Platform = "iosxe"
		}
	}
	if cfg.Watch.Interval == 0 {
		cfg.Watch.Interval = DefaultWatchInterval
	}
	if cfg.History.DataDir == "" {
		if configDir, err := os.UserConfigDir(); err == nil {
			cfg.History.DataDir = filepath.Join(configDir, "devicesync")
		} else {
			cfg.History.DataDir = "."
		}
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
