package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/openstax/versionbump/pkg/bump"
	"github.com/openstax/versionbump/pkg/version"
)

type Config struct {
	Files     []string `mapstructure:"files"`
	Version   string   `mapstructure:"version"`
	Type      string   `mapstructure:"type"`
	Disabled  bool     `mapstructure:"disabled"`
	Cooldown  int64    `mapstructure:"cooldown"`
	StateFile string   `mapstructure:"state_file"`
	Dir       string   `mapstructure:"dir"`
	DryRun    bool     `mapstructure:"dry_run"`
	LogLevel  string   `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("files", []string{bump.DefaultFile})
	v.SetDefault("version", "")
	v.SetDefault("type", string(version.DefaultTarget))
	v.SetDefault("disabled", false)
	v.SetDefault("cooldown", 0)
	v.SetDefault("state_file", bump.DefaultStateFile)
	v.SetDefault("dir", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("log_level", "info")
}

// LoadConfig reads configPath, or .versionbump.{yaml,json,toml} from the home
// or working directory when no path is given. A missing default config file
// is not an error; settings then come from flags, env and defaults.
func LoadConfig(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".versionbump")

		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(homeDir)
		}

		if cwd, err := os.Getwd(); err == nil {
			v.AddConfigPath(cwd)
		}
	}
	v.SetEnvPrefix("VERSIONBUMP")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || configPath != "" {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := version.ParseTarget(c.Type); err != nil {
		return fmt.Errorf("type must be one of %v: %w", version.Targets(), err)
	}

	if c.Cooldown < 0 {
		return fmt.Errorf("cooldown must be zero or a positive number of milliseconds, got %d", c.Cooldown)
	}

	for i, f := range c.Files {
		if f == "" {
			return fmt.Errorf("files[%d] is empty", i)
		}
	}

	return nil
}

// Options converts the configuration for the bumper.
func (c *Config) Options() (bump.Options, error) {
	target, err := version.ParseTarget(c.Type)
	if err != nil {
		return bump.Options{}, err
	}
	return bump.Options{
		Files:     c.Files,
		Version:   c.Version,
		Type:      target,
		Disabled:  c.Disabled,
		Cooldown:  time.Duration(c.Cooldown) * time.Millisecond,
		StateFile: c.StateFile,
		Dir:       c.Dir,
		DryRun:    c.DryRun,
	}, nil
}
