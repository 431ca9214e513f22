package config

import (
	"fmt"
	"os"
	"sync"

	"github.com/rowscope/rowscope/internal/aws"
	"github.com/rowscope/rowscope/internal/config/data"
)

// Config is the root configuration for the application.
type Config struct {
	Rowscope *Rowscope `yaml:"rowscope"`
	mx       sync.RWMutex
}

// NewConfig creates a new Config with default settings.
func NewConfig() *Config {
	return &Config{
		Rowscope: NewRowscope(),
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, the current config is kept.
func (c *Config) Load(path string, force bool) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !force {
			return nil
		}
		return fmt.Errorf("config file does not exist: %s", path)
	}

	if err := data.LoadYAML(path, c); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if c.Rowscope == nil {
		c.Rowscope = NewRowscope()
	}
	c.Rowscope.Validate()

	return nil
}

// Save saves the configuration to path.
// If force is false, only saves if the file already exists.
func (c *Config) Save(path string, force bool) error {
	c.mx.RLock()
	defer c.mx.RUnlock()

	if path == "" {
		return fmt.Errorf("no config file path configured")
	}
	if _, err := os.Stat(path); err != nil && !force {
		return nil
	}
	if err := data.SaveYAML(path, c); err != nil {
		return fmt.Errorf("failed to save config to %s: %w", path, err)
	}

	return nil
}

// Refine applies CLI flags then settles the AWS profile and region.
// Profile: CLI --profile > config aws.profile > AWS_PROFILE > default.
// Region: CLI --region > config aws.region > AWS_REGION > profile region.
// A nil profile manager leaves the AWS settings untouched.
func (c *Config) Refine(flags *data.Flags, pm *aws.ProfileManager) error {
	c.mx.Lock()
	defer c.mx.Unlock()

	if c.Rowscope == nil {
		return fmt.Errorf("config.Rowscope is nil")
	}
	c.Rowscope.Override(flags)
	if pm == nil {
		return nil
	}

	c.Rowscope.mx.Lock()
	defer c.Rowscope.mx.Unlock()

	profile, region, err := pm.Resolve(c.Rowscope.AWS.Profile, c.Rowscope.AWS.Region)
	if err != nil {
		return fmt.Errorf("resolve aws profile: %w", err)
	}
	c.Rowscope.AWS.Profile, c.Rowscope.AWS.Region = profile, region

	return nil
}
