package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/contractd/pkg/logging"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidConfig    = errors.New("invalid configuration")
)

// DiscoveryOrder lists the file names LoadOrDefault tries when no path is
// given.
var DiscoveryOrder = []string{"contractd.yaml", "contractd.yml", "contractd.json"}

// LoadFromFile reads a configuration file. Files ending in .json are JSON,
// everything else is YAML. Environment overrides are applied.
func LoadFromFile(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	var cfg *Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg, err = ParseJSON(data)
	} else {
		cfg, err = ParseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseYAML decodes, validates and completes a YAML configuration.
func ParseYAML(data []byte) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))

	var doc any
	if err := yaml.Unmarshal(expanded, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if doc != nil {
		if err := validateDocument(doc); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return finish(cfg)
}

// ParseJSON decodes, validates and completes a JSON configuration.
func ParseJSON(data []byte) (*Config, error) {
	expanded := []byte(ExpandEnvVars(string(data)))
	if !json.Valid(expanded) {
		return nil, ErrInvalidJSON
	}

	var doc any
	if err := json.Unmarshal(expanded, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := validateDocument(doc); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json.Unmarshal(expanded, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if _, err := cfg.ScenarioFilter(); err != nil {
		return nil, fmt.Errorf("%w: filter: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadOrDefault loads path, or the first file in DiscoveryOrder when path
// is empty. A missing or broken file is logged and the defaults are used.
func LoadOrDefault(path string, logger *slog.Logger) *Config {
	if logger == nil {
		logger = logging.Nop()
	}
	if path == "" {
		path = discover()
	}
	if path != "" {
		cfg, err := LoadFromFile(path)
		if err == nil {
			logger.Debug("loaded configuration", "path", path)
			return cfg
		}
		if !errors.Is(err, ErrFileNotFound) {
			logger.Warn("ignoring configuration file", logging.ErrorAttrs(err)...)
		}
	}

	cfg := Default()
	if err := ApplyEnv(cfg, os.LookupEnv); err != nil {
		logger.Warn("ignoring environment overrides", logging.ErrorAttrs(err)...)
		return Default()
	}
	return cfg
}

func discover() string {
	for _, name := range DiscoveryOrder {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars substitutes ${VAR} and ${VAR:-default} references.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(sub[1]); val != "" {
			return val
		}
		return sub[2]
	})
}
