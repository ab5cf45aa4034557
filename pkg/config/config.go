// Package config holds the YAML-backed application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

type Config struct {
	Vault  VaultConfig  `yaml:"vault"`
	Backup BackupConfig `yaml:"backup"`
	Logger LoggerConfig `yaml:"logger"`
}

type VaultConfig struct {
	// Dir is the data directory. A leading ~ expands to the home dir.
	Dir         string `yaml:"dir"`
	MaxKeyBytes int    `yaml:"max_key_bytes"`
	Strict      bool   `yaml:"strict"`
}

type BackupConfig struct {
	Codec string `yaml:"codec"`
}

type LoggerConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Vault: VaultConfig{
			Dir:         "~/.mpkv",
			MaxKeyBytes: 256,
			Strict:      false,
		},
		Backup: BackupConfig{
			Codec: "zstd",
		},
		Logger: LoggerConfig{
			Level: "info",
			JSON:  false,
		},
	}
}

// Load reads the YAML config at path, overlaying it on Default() so a
// partial file only overrides the keys it names. A missing file is not an
// error; the defaults are returned as is.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// ExpandHome resolves a leading ~ in path against the current user's home
// directory. Paths without the prefix pass through unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
