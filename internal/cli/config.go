package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/pipeline"
	"github.com/matzehuels/treeflow/pkg/session"
)

// configFile is the config file name inside the config directory.
const configFile = "config.toml"

// Config is the CLI configuration file.
//
//	store       = "redis://localhost:6379/0?prefix=tf:"
//	cache       = "file:///var/cache/treeflow"
//	log_level   = "debug"
//	addr        = ":8080"
//	timeout     = "30s"
//	session_ttl = "1h"
type Config struct {
	Store      string `toml:"store"`
	Cache      string `toml:"cache"`
	LogLevel   string `toml:"log_level"`
	Addr       string `toml:"addr"`
	Timeout    string `toml:"timeout"`
	SessionTTL string `toml:"session_ttl"`
}

// DefaultConfig stores documents under the XDG data directory and caches
// rendered artifacts under the XDG cache directory.
func DefaultConfig() Config {
	cfg := Config{
		Store:      "null://",
		LogLevel:   log.InfoLevel.String(),
		Addr:       ":8080",
		Timeout:    pipeline.DefaultTimeout.String(),
		SessionTTL: session.DefaultTTL.String(),
	}
	if dir, err := dataDir(); err == nil {
		cfg.Store = "file://" + filepath.Join(dir, "documents")
	}
	if dir, err := cacheDir(); err == nil {
		cfg.Cache = "file://" + dir
	}
	return cfg
}

// defaultConfigPath returns the config file location, or the bare file
// name when no home directory is known.
func defaultConfigPath() string {
	dir, err := configDir()
	if err != nil {
		return configFile
	}
	return filepath.Join(dir, configFile)
}

// LoadConfig reads path over the defaults. With an empty path the default
// location is used and a missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath()
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

// Validate checks durations and the log level.
func (c Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "log_level")
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.SessionTTLDuration(); err != nil {
		return err
	}
	return errors.ValidateStoreURL(c.Store)
}

// TimeoutDuration parses Timeout.
func (c Config) TimeoutDuration() (time.Duration, error) {
	return parseDuration("timeout", c.Timeout, pipeline.DefaultTimeout)
}

// SessionTTLDuration parses SessionTTL.
func (c Config) SessionTTLDuration() (time.Duration, error) {
	return parseDuration("session_ttl", c.SessionTTL, session.DefaultTTL)
}

func parseDuration(field, s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s: invalid duration %q", field, s)
	}
	return d, nil
}

// Encode renders the config as TOML.
func (c Config) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// configCommand creates the config command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.configPath
			if path == "" {
				path = defaultConfigPath()
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := c.Config.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return cmd
}
