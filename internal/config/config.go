// ABOUTME: Configuration for tagfilter loaded with viper.
// ABOUTME: Merges defaults, the XDG config file and TAGFILTER_* env vars.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultCharmHost  = "charm.2389.dev"
	DefaultAddr       = "127.0.0.1:8737"
	DefaultTargetHost = "notebooklm.google.com"
	EnvPrefix         = "TAGFILTER"
)

// Charm configures the synced area.
type Charm struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host,omitempty"`
	// AutoSync pushes to the charm server after every write.
	AutoSync bool `yaml:"auto_sync"`
	// StaleThreshold triggers a pull before reads when the last sync is
	// older. Zero disables it.
	StaleThreshold time.Duration `yaml:"stale_threshold,omitempty"`
}

// Page configures the page host and who may be messaged.
type Page struct {
	Addr       string `yaml:"addr"`
	TargetHost string `yaml:"target_host"`
	SourceURL  string `yaml:"source_url,omitempty"`
}

type Config struct {
	Charm    Charm  `yaml:"charm"`
	Page     Page   `yaml:"page"`
	LogLevel string `yaml:"log_level,omitempty"`
	DBPath   string `yaml:"db_path,omitempty"`
}

func Default() *Config {
	return &Config{
		Charm: Charm{
			Enabled:  true,
			Host:     DefaultCharmHost,
			AutoSync: true,
		},
		Page: Page{
			Addr:       DefaultAddr,
			TargetHost: DefaultTargetHost,
			SourceURL:  "https://" + DefaultTargetHost + "/",
		},
		LogLevel: "warn",
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "tagfilter")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// ConfigExists returns true if a config file exists.
func ConfigExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("charm.enabled", d.Charm.Enabled)
	v.SetDefault("charm.host", d.Charm.Host)
	v.SetDefault("charm.auto_sync", d.Charm.AutoSync)
	v.SetDefault("charm.stale_threshold", d.Charm.StaleThreshold)
	v.SetDefault("page.addr", d.Page.Addr)
	v.SetDefault("page.target_host", d.Page.TargetHost)
	v.SetDefault("page.source_url", d.Page.SourceURL)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("db_path", "")

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads ConfigPath. A missing file yields the defaults with any
// environment overrides applied.
func Load() (*Config, error) {
	return LoadFile(ConfigPath())
}

func LoadFile(path string) (*Config, error) {
	v := newViper(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return &Config{
		Charm: Charm{
			Enabled:        v.GetBool("charm.enabled"),
			Host:           v.GetString("charm.host"),
			AutoSync:       v.GetBool("charm.auto_sync"),
			StaleThreshold: v.GetDuration("charm.stale_threshold"),
		},
		Page: Page{
			Addr:       v.GetString("page.addr"),
			TargetHost: v.GetString("page.target_host"),
			SourceURL:  v.GetString("page.source_url"),
		},
		LogLevel: v.GetString("log_level"),
		DBPath:   v.GetString("db_path"),
	}, nil
}

// Save writes cfg to ConfigPath.
func Save(cfg *Config) error {
	return SaveFile(ConfigPath(), cfg)
}

func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
