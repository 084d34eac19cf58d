package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ning0612/Devicesync/internal/domain"
)

// Config represents the complete configuration for devicesync
type Config struct {
	// Devices define the network devices files are synced with
	Devices []Device `mapstructure:"devices"`

	// Transfer sets process-wide transfer defaults; per-invocation flags
	// override these
	Transfer Transfer `mapstructure:"transfer"`

	// History controls the optional transfer journal
	History History `mapstructure:"history"`

	// Watch controls the periodic re-sync loop
	Watch Watch `mapstructure:"watch"`
}

// Device describes one reachable network device
type Device struct {
	// Name identifies the device in commands and logs
	Name string `mapstructure:"name"`

	// Host is the address of the device
	Host string `mapstructure:"host"`

	// Port is the SSH port, 22 when 0
	Port int `mapstructure:"port"`

	// Username and Password authenticate both channels
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`

	// EnableSecret answers the privilege-escalation prompt; falls back to
	// Password when empty
	EnableSecret string `mapstructure:"enable_secret"`

	// Platform selects the command dialect, e.g. "iosxe"
	Platform string `mapstructure:"platform"`

	// FileSystem overrides filesystem root autodetection, e.g. "flash:/"
	FileSystem string `mapstructure:"file_system"`
}

// Addr returns the dialable host:port of the device
func (d *Device) Addr() string {
	port := d.Port
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("%s:%d", d.Host, port)
}

// Transfer holds transfer defaults
type Transfer struct {
	VerifyHash        *bool         `mapstructure:"verify_hash"`
	Overwrite         bool          `mapstructure:"overwrite"`
	ForcePolicy       string        `mapstructure:"force_policy"`
	Cleanup           *bool         `mapstructure:"cleanup"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`
	BlockSize         int           `mapstructure:"block_size"`
	HashTimeout       time.Duration `mapstructure:"hash_timeout"`
	CommandTimeout    time.Duration `mapstructure:"command_timeout"`
}

// Options materializes the configured defaults as transfer options
func (t *Transfer) Options() domain.TransferOptions {
	opts := domain.DefaultTransferOptions()
	if t.VerifyHash != nil {
		opts.VerifyHash = *t.VerifyHash
	}
	opts.Overwrite = t.Overwrite
	if t.ForcePolicy != "" {
		if p, err := domain.ParseForcePolicy(t.ForcePolicy); err == nil {
			opts.ForcePolicy = p
		}
	}
	if t.Cleanup != nil {
		opts.Cleanup = *t.Cleanup
	}
	if t.KeepaliveInterval > 0 {
		opts.KeepaliveInterval = t.KeepaliveInterval
	}
	if t.BlockSize > 0 {
		opts.BlockSize = t.BlockSize
	}
	return opts
}

// History configures the transfer journal
type History struct {
	// Enabled turns journaling on; off by default
	Enabled bool `mapstructure:"enabled"`

	// DataDir holds the journal database; defaults to the user config dir
	DataDir string `mapstructure:"data_dir"`
}

// Watch configures the periodic re-sync loop
type Watch struct {
	// Interval between sync attempts; defaults to 5 minutes
	Interval time.Duration `mapstructure:"interval"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	// Check device name uniqueness and required fields
	deviceNames := make(map[string]bool)
	for _, d := range c.Devices {
		if d.Name == "" {
			return fmt.Errorf("%w: device name cannot be empty", domain.ErrConfigInvalid)
		}
		if deviceNames[d.Name] {
			return fmt.Errorf("%w: duplicate device name: %s", domain.ErrConfigInvalid, d.Name)
		}
		if d.Host == "" {
			return fmt.Errorf("%w: device %s has no host", domain.ErrConfigInvalid, d.Name)
		}
		if d.Username == "" {
			return fmt.Errorf("%w: device %s has no username", domain.ErrConfigInvalid, d.Name)
		}
		if d.Platform != "" && d.Platform != "iosxe" {
			return fmt.Errorf("%w: device %s has unsupported platform: %s",
				domain.ErrConfigInvalid, d.Name, d.Platform)
		}
		deviceNames[d.Name] = true
	}

	if c.Transfer.ForcePolicy != "" {
		if _, err := domain.ParseForcePolicy(c.Transfer.ForcePolicy); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
		}
	}
	if c.Transfer.BlockSize < 0 {
		return fmt.Errorf("%w: block_size cannot be negative", domain.ErrConfigInvalid)
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("%w: watch interval cannot be negative", domain.ErrConfigInvalid)
	}

	return nil
}

// GetDevice returns a device by name
func (c *Config) GetDevice(name string) (*Device, error) {
	for i := range c.Devices {
		if c.Devices[i].Name == name {
			return &c.Devices[i], nil
		}
	}
	return nil, fmt.Errorf("%w: device %s", domain.ErrConfigNotFound, name)
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	// Expand ~ to home directory
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	// Expand environment variables
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
