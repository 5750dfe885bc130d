// Package config manages the rbzk CLI's configuration using koanf/v2.
//
// Supports a YAML file, environment variables, and CLI flag overrides
// applied by the caller after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config holds the complete rbzk CLI configuration.
type Config struct {
	IP       string        `koanf:"ip"`
	Port     int           `koanf:"port"`
	Timeout  time.Duration `koanf:"timeout"`
	Password int           `koanf:"password"`
	ForceUDP bool          `koanf:"force_udp"`
	NoPing   bool          `koanf:"no_ping"`
	Verbose  bool          `koanf:"verbose"`
	Encoding string        `koanf:"encoding"`
}

// DefaultConfig returns a Config populated with sensible defaults: TCP
// against the factory default port, a 10s timeout, no password.
func DefaultConfig() *Config {
	return &Config{
		IP:       "192.168.1.201",
		Port:     4370,
		Timeout:  10 * time.Second,
		Password: 0,
		ForceUDP: false,
		NoPing:   false,
		Verbose:  false,
		Encoding: "UTF-8",
	}
}

// envPrefix is the environment variable prefix for rbzk CLI configuration.
// Variables are named RBZK_<KEY>, e.g. RBZK_IP, RBZK_PASSWORD.
const envPrefix = "RBZK_"

// SearchPaths returns the config file search order: $XDG_CONFIG_HOME/rbzk
// /config.yml, $HOME/.config/rbzk/config.yml, then ./.rbzk.yml, in that
// priority (earlier entries win).
func SearchPaths() []string {
	var paths []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "rbzk", "config.yml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "rbzk", "config.yml"))
	}
	paths = append(paths, ".rbzk.yml")
	return paths
}

// Load builds a Config from DefaultConfig(), overlaid by the first existing
// file in SearchPaths() (or explicitPath, if non-empty), overlaid by
// RBZK_-prefixed environment variables.
func Load(explicitPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	path := explicitPath
	if path == "" {
		for _, candidate := range SearchPaths() {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms RBZK_FORCE_UDP -> force_udp.
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(s)
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"ip":        defaults.IP,
		"port":      defaults.Port,
		"timeout":   defaults.Timeout.String(),
		"password":  defaults.Password,
		"force_udp": defaults.ForceUDP,
		"no_ping":   defaults.NoPing,
		"verbose":   defaults.Verbose,
		"encoding":  defaults.Encoding,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	return nil
}

// ErrEmptyIP indicates the device IP is empty.
var ErrEmptyIP = errors.New("ip must not be empty")

// ErrInvalidPort indicates the device port is out of range.
var ErrInvalidPort = errors.New("port must be between 1 and 65535")

// Validate checks the configuration for logical errors.
func Validate(cfg *Config) error {
	if cfg.IP == "" {
		return ErrEmptyIP
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}
