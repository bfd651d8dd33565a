package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadServerConfig reads a JSON file and merges it over DefaultServerConfig.
// A partial file is not an error: absent fields simply keep their
// defaults. A missing or unreadable file is returned as an error.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	var loaded ServerConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.Merge(&loaded)
	return cfg, nil
}
