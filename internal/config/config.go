package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override. Keys are derived from the
// upper-cased field path, e.g. KUDUBOT_GENERAL_LOGLEVEL or KUDUBOT_HOST_TIMEOUTSECONDS.
const EnvPrefix = "KUDUBOT"

// Config is the root configuration shared by the responder service and the kudubot tool.
type Config struct {
	General   GeneralConfig   `json:"general" yaml:"general" toml:"general"`
	Responder ResponderConfig `json:"responder" yaml:"responder" toml:"responder"`
	Store     StoreConfig     `json:"store" yaml:"store" toml:"store"`
	Host      HostConfig      `json:"host" yaml:"host" toml:"host"`
}

type GeneralConfig struct {
	LogLevel  string `json:"logLevel" yaml:"logLevel" toml:"logLevel"`
	LogFormat string `json:"logFormat" yaml:"logFormat" toml:"logFormat"` // "console" | "json"
	LogFile   string `json:"logFile,omitempty" yaml:"logFile,omitempty" toml:"logFile,omitempty"`
}

// ResponderConfig configures the rule-based responder service.
type ResponderConfig struct {
	RulesFile       string      `json:"rulesFile,omitempty" yaml:"rulesFile,omitempty" toml:"rulesFile,omitempty"`
	RulesDir        string      `json:"rulesDir,omitempty" yaml:"rulesDir,omitempty" toml:"rulesDir,omitempty"`
	DisableBuiltins bool        `json:"disableBuiltins" yaml:"disableBuiltins" toml:"disableBuiltins"`
	DefaultTitle    string      `json:"defaultTitle" yaml:"defaultTitle" toml:"defaultTitle"`
	Fallback        ReplyConfig `json:"fallback" yaml:"fallback" toml:"fallback"`
}

// ReplyConfig is a fixed reply title and body.
type ReplyConfig struct {
	Title string `json:"title" yaml:"title" toml:"title"`
	Body  string `json:"body" yaml:"body" toml:"body"`
}

// StoreConfig configures the invocation history. An empty DBPath disables it
// unless the host passes a database path on the command line.
type StoreConfig struct {
	DBPath string `json:"dbPath,omitempty" yaml:"dbPath,omitempty" toml:"dbPath,omitempty"`
}

// HostConfig configures the host-side invoker used by the kudubot tool.
type HostConfig struct {
	WorkDir        string `json:"workDir" yaml:"workDir" toml:"workDir"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds" toml:"timeoutSeconds"`
	KeepFiles      bool   `json:"keepFiles" yaml:"keepFiles" toml:"keepFiles"`
}

// DefaultConfigDir returns the default config directory (~/.kudubot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".kudubot"
	}
	return filepath.Join(home, ".kudubot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Load reads the config file at path, applies environment overrides and validates.
// The format is chosen by extension: .json, .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault behaves like Load but falls back to Defaults (plus environment
// overrides) when the file does not exist. The bool reports whether a file was read.
func LoadOrDefault(path string) (*Config, bool, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, false, err
	}

	cfg = Defaults()
	if err := finish(cfg); err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

func finish(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}

	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)
	cfg.Responder.RulesFile = ExpandPath(cfg.Responder.RulesFile)
	cfg.Responder.RulesDir = ExpandPath(cfg.Responder.RulesDir)
	cfg.Store.DBPath = ExpandPath(cfg.Store.DBPath)
	cfg.Host.WorkDir = ExpandPath(cfg.Host.WorkDir)

	if err := Validate(cfg); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	return nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch format(path) {
	case "yaml":
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return yaml.Unmarshal(data, cfg)
	case "toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		return json.Unmarshal(data, cfg)
	}
}

func format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".toml":
		return "toml"
	default:
		return "json"
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch format(path) {
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(cfg)
		data = buf.Bytes()
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	switch cfg.General.LogFormat {
	case "console", "json":
		// valid
	default:
		errs = append(errs, "general.logFormat must be one of: console, json")
	}

	if cfg.Host.TimeoutSeconds < 1 || cfg.Host.TimeoutSeconds > 3600 {
		errs = append(errs, "host.timeoutSeconds must be between 1 and 3600")
	}
	if cfg.Host.WorkDir == "" {
		errs = append(errs, "host.workDir must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
