package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// Load reads configuration from the specified file path.
// It supports YAML files and performs environment variable substitution.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// Read the config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadOrDefault behaves like Load, except that a missing file yields the
// default configuration when the path was not given explicitly. This keeps
// the argument-free invocation working in a bare checkout.
func LoadOrDefault(configPath string, explicit bool) (*Config, error) {
	if !explicit {
		if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			substituteEnvVars(cfg)
			return cfg, nil
		}
	}
	return Load(configPath)
}

// LoadFromViper creates a Config from an existing Viper instance.
// Useful for testing or when Viper is configured externally.
func LoadFromViper(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	// Lists in the file replace the default lists.
	if err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.ZeroFields = true }); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	substituteEnvVars(cfg)
	return cfg, nil
}

// envVarPattern matches ${VAR_NAME} or $VAR_NAME patterns
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func substituteEnvVars(cfg *Config) {
	cfg.Paths.DataDir = expandEnvVar(cfg.Paths.DataDir)
	cfg.Paths.HierarchyDir = expandEnvVar(cfg.Paths.HierarchyDir)
	cfg.Paths.OutputDir = expandEnvVar(cfg.Paths.OutputDir)

	cfg.ResultsDB.Path = expandEnvVar(cfg.ResultsDB.Path)
	cfg.ResultsDB.Host = expandEnvVar(cfg.ResultsDB.Host)
	cfg.ResultsDB.User = expandEnvVar(cfg.ResultsDB.User)
	cfg.ResultsDB.Password = expandEnvVar(cfg.ResultsDB.Password)
	cfg.ResultsDB.Database = expandEnvVar(cfg.ResultsDB.Database)

	cfg.Publish.Dir = expandEnvVar(cfg.Publish.Dir)
	cfg.Publish.Bucket = expandEnvVar(cfg.Publish.Bucket)
	cfg.Publish.Endpoint = expandEnvVar(cfg.Publish.Endpoint)

	cfg.Metrics.Textfile = expandEnvVar(cfg.Metrics.Textfile)
	cfg.Logging.Output = expandEnvVar(cfg.Logging.Output)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		var varName string
		if strings.HasPrefix(match, "${") {
			varName = match[2 : len(match)-1]
		} else {
			varName = match[1:]
		}

		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Return original if env var not found
		return match
	})
}

// ApplyOverrides applies CLI flag overrides to the configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, repetitions int, meanPolicy, engineName string) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if repetitions > 0 {
		c.Benchmark.Repetitions = repetitions
	}
	if meanPolicy != "" {
		c.Benchmark.MeanPolicy = meanPolicy
	}
	if engineName != "" {
		c.Engine.Name = engineName
	}
}
