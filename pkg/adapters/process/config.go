package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// CommandConfig describes the local command that executes one node type.
type CommandConfig struct {
	Type        string            `yaml:"type" json:"type"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile is the layout of executors.yaml.
type ConfigFile struct {
	Executors []CommandConfig `yaml:"executors" json:"executors"`
}

// LoadCommands reads a YAML or JSON file and returns the commands keyed by
// node type. A missing file yields an empty map.
func LoadCommands(path string) (map[string]CommandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CommandConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read executors config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	commands := make(map[string]CommandConfig, len(cfg.Executors))
	for _, c := range cfg.Executors {
		if c.Type == "" || c.Command == "" {
			continue
		}
		commands[c.Type] = c
	}
	return commands, nil
}
