package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/hjson/hjson-go"
	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Load loads configuration with priority: defaults < file < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := expandPaths(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// expandPaths resolves a leading ~ in every configured path.
func expandPaths(cfg *Config) error {
	for _, p := range []*string{&cfg.Run.Input, &cfg.Run.Output, &cfg.Run.ProfileDir, &cfg.Logging.LogFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./aobake.yaml",
		"./aobake.hjson",
		"./aobake.toml",
		filepath.Join(ConfigDir(), "config.yaml"),
		filepath.Join(ConfigDir(), "config.hjson"),
		filepath.Join(ConfigDir(), "config.toml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := homedir.Dir()
		return filepath.Join(home, "Library", "Application Support", "AOBake")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "AOBake")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "aobake")
		}
		home, _ := homedir.Dir()
		return filepath.Join(home, ".config", "aobake")
	}
}

// fileFormat names the encoding of a config file from its extension.
// Anything unrecognised is YAML.
func fileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hjson":
		return "hjson"
	case ".toml":
		return "toml"
	default:
		return "yaml"
	}
}

// loadFromFile loads config from a YAML, HJSON or TOML file, merging with
// existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch fileFormat(path) {
	case "hjson":
		return decodeHJSON(data, cfg)
	case "toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// decodeHJSON goes through a generic map because hjson only fills maps;
// encoding/json then merges the map into cfg by json tags.
func decodeHJSON(data []byte, cfg *Config) error {
	var m map[string]interface{}
	if err := hjson.Unmarshal(data, &m); err != nil {
		return err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, cfg)
}
