package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
// Parameter names (criteria, metrics, datafiles) are checked by Matrix.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validatePaths()...)
	errors = append(errors, c.validateBenchmark()...)
	errors = append(errors, c.validateOutput()...)

	if c.Engine.Name == "" {
		errors = append(errors, ValidationError{
			Field:   "engine.name",
			Message: "engine name is required",
		})
	}

	if c.ResultsDB.Enabled {
		errors = append(errors, c.validateDatabase()...)
	}
	if c.Publish.Enabled {
		errors = append(errors, c.validatePublish()...)
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		errors = append(errors, ValidationError{
			Field:   "metrics.textfile",
			Message: "textfile is required when metrics are enabled",
		})
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validatePaths() ValidationErrors {
	var errors ValidationErrors

	if c.Paths.DataDir == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.data_dir",
			Message: "data_dir is required",
		})
	}

	if c.Paths.HierarchyDir == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.hierarchy_dir",
			Message: "hierarchy_dir is required",
		})
	}

	return errors
}

func (c *Config) validateBenchmark() ValidationErrors {
	var errors ValidationErrors
	b := c.Benchmark

	if b.Repetitions <= 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.repetitions",
			Message: "repetitions must be positive",
		})
	}

	validPolicies := map[string]bool{"arithmetic": true, "geometric": true}
	if !validPolicies[strings.ToLower(b.MeanPolicy)] {
		errors = append(errors, ValidationError{
			Field:   "benchmark.mean_policy",
			Message: "mean_policy must be 'arithmetic' or 'geometric'",
		})
	}

	if len(b.Criteria) == 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.criteria",
			Message: "at least one criterion must be defined",
		})
	}

	if len(b.Metrics) == 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.metrics",
			Message: "at least one metric must be defined",
		})
	}

	if len(b.Suppression) == 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.suppression",
			Message: "at least one suppression value must be defined",
		})
	}
	for i, s := range b.Suppression {
		if s < 0 || s > 1 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("benchmark.suppression[%d]", i),
				Message: "suppression must be between 0 and 1",
			})
		}
	}

	if b.FlashACSQICount <= 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.flash_acs_qi_count",
			Message: "flash_acs_qi_count must be positive",
		})
	}

	for i, n := range b.SelfQICounts {
		if n <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("benchmark.self_qi_counts[%d]", i),
				Message: "QI count must be positive",
			})
		}
	}

	if b.SelfTimeLimitMS <= 0 {
		errors = append(errors, ValidationError{
			Field:   "benchmark.self_time_limit_ms",
			Message: "self_time_limit_ms must be positive",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	files := map[string]string{
		"output.flash_file": c.Output.FlashFile,
		"output.self_file":  c.Output.SelfFile,
	}
	if c.Benchmark.HeuraklesExhaustive {
		files["output.heurakles_exhaustive_file"] = c.Output.HeuraklesExhaustiveFile
	}

	seen := make(map[string]string)
	for _, field := range []string{"output.flash_file", "output.self_file", "output.heurakles_exhaustive_file"} {
		name, ok := files[field]
		if !ok {
			continue
		}
		if name == "" {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: "file name is required",
			})
			continue
		}
		if other, dup := seen[name]; dup {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("must differ from %s so suites never share a file", other),
			})
		}
		seen[name] = field
	}

	return errors
}

func (c *Config) validateDatabase() ValidationErrors {
	var errors ValidationErrors
	db := &c.ResultsDB

	switch db.Driver {
	case "sqlite3":
		if db.Path == "" {
			errors = append(errors, ValidationError{
				Field:   "results_db.path",
				Message: "path is required for sqlite3",
			})
		}
	case "mysql":
		if db.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "results_db.host",
				Message: "host is required",
			})
		}

		if db.Port <= 0 || db.Port > 65535 {
			errors = append(errors, ValidationError{
				Field:   "results_db.port",
				Message: "port must be between 1 and 65535",
			})
		}

		if db.User == "" {
			errors = append(errors, ValidationError{
				Field:   "results_db.user",
				Message: "user is required",
			})
		}

		if db.Database == "" {
			errors = append(errors, ValidationError{
				Field:   "results_db.database",
				Message: "database name is required",
			})
		}

		validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
		if !validTLS[db.TLS] {
			errors = append(errors, ValidationError{
				Field:   "results_db.tls",
				Message: "tls must be 'disable', 'preferred', or 'required'",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "results_db.driver",
			Message: "driver must be 'mysql' or 'sqlite3'",
		})
	}

	if db.Table == "" {
		errors = append(errors, ValidationError{
			Field:   "results_db.table",
			Message: "table is required",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "results_db.max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   "results_db.max_idle_connections",
			Message: "max_idle_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validatePublish() ValidationErrors {
	var errors ValidationErrors

	switch c.Publish.Backend {
	case "local":
		if c.Publish.Dir == "" {
			errors = append(errors, ValidationError{
				Field:   "publish.dir",
				Message: "dir is required for the local backend",
			})
		}
	case "s3":
		if c.Publish.Bucket == "" {
			errors = append(errors, ValidationError{
				Field:   "publish.bucket",
				Message: "bucket is required for the s3 backend",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "publish.backend",
			Message: "backend must be 'local' or 's3'",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
