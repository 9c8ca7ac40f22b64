package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Save writes the config to the user's config directory.
func (c *Config) Save() error {
	return c.SaveTo(filepath.Join(ConfigDir(), "config.yaml"))
}

// SaveTo writes the config to a specific path in the format its extension
// selects (see loadFromFile).
func (c *Config) SaveTo(path string) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := c.encode(fileFormat(path))
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func (c *Config) encode(format string) ([]byte, error) {
	switch format {
	case "toml":
		return toml.Marshal(c)
	case "yaml":
		return yaml.Marshal(c)
	}

	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return hjson.Marshal(m)
}
