// Package config loads tracelight configuration from file, environment
// variables, and CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config file names, looked up in the working directory.
const (
	ConfigFileName    = "tracelight.yaml"
	ConfigFileNameAlt = "tracelight.yml"
)

// Default configuration values.
const (
	DefaultLineageDir = "lineage"
	DefaultStateFile  = "tracelight.db"
	DefaultPort       = 8400
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// Config holds the full tracelight configuration.
type Config struct {
	LineageDir   string `koanf:"lineage_dir"`
	StatePath    string `koanf:"state_path"`
	Port         int    `koanf:"port"`
	Watch        bool   `koanf:"watch"`
	PhysicalOnly bool   `koanf:"physical_only"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	Verbose      bool   `koanf:"verbose"`
}

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
)

// findConfigFile finds the config file to use.
// Priority: explicit path > tracelight.yaml > tracelight.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
}

// LoadConfig loads configuration from file, environment variables, and
// flags. Precedence (highest to lowest): flags > env vars > config file
// > defaults.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"lineage_dir": DefaultLineageDir,
		"state_path":  DefaultStateFile,
		"port":        DefaultPort,
		"watch":       false,
		"log_level":   DefaultLogLevel,
		"log_format":  DefaultLogFormat,
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load config file if present
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (TRACELIGHT_ prefix)
	// Transform: TRACELIGHT_LINEAGE_DIR -> lineage_dir
	if err := k.Load(env.Provider("TRACELIGHT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "TRACELIGHT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity, the config key is state_path
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Resolve paths relative to the config file's directory so running
	// from a subdirectory still finds the project files.
	if configFileUsed != "" {
		base := filepath.Dir(configFileUsed)
		cfg.LineageDir = resolvePathRelativeTo(cfg.LineageDir, base)
		cfg.StatePath = resolvePathRelativeTo(cfg.StatePath, base)
	}

	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not
// absolute. Returns the path unchanged if it's empty or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
