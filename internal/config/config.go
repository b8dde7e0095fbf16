// Package config provides configuration structures and loading for riskbench.
package config

import (
	"path/filepath"
	"time"

	"github.com/dbsmedya/riskbench/internal/budget"
	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/experiment"
)

// Config represents the complete application configuration.
type Config struct {
	Paths     PathsConfig     `yaml:"paths" mapstructure:"paths"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	ResultsDB DatabaseConfig  `yaml:"results_db" mapstructure:"results_db"`
	Publish   PublishConfig   `yaml:"publish" mapstructure:"publish"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
}

// PathsConfig locates the input and output directories.
type PathsConfig struct {
	DataDir      string `yaml:"data_dir" mapstructure:"data_dir"`
	HierarchyDir string `yaml:"hierarchy_dir" mapstructure:"hierarchy_dir"`
	OutputDir    string `yaml:"output_dir" mapstructure:"output_dir"`
}

// BenchmarkConfig describes the sweep.
type BenchmarkConfig struct {
	Repetitions         int       `yaml:"repetitions" mapstructure:"repetitions"`
	MeanPolicy          string    `yaml:"mean_policy" mapstructure:"mean_policy"` // arithmetic or geometric
	Criteria            []string  `yaml:"criteria" mapstructure:"criteria"`
	Metrics             []string  `yaml:"metrics" mapstructure:"metrics"`
	Suppression         []float64 `yaml:"suppression" mapstructure:"suppression"`
	FlashDatafiles      []string  `yaml:"flash_datafiles" mapstructure:"flash_datafiles"`
	FlashACSQICount     int       `yaml:"flash_acs_qi_count" mapstructure:"flash_acs_qi_count"`
	SelfDatafiles       []string  `yaml:"self_datafiles" mapstructure:"self_datafiles"`
	SelfQICounts        []int     `yaml:"self_qi_counts" mapstructure:"self_qi_counts"`
	SelfTimeLimitMS     int64     `yaml:"self_time_limit_ms" mapstructure:"self_time_limit_ms"`
	HeuraklesExhaustive bool      `yaml:"heurakles_exhaustive" mapstructure:"heurakles_exhaustive"`
}

// OutputConfig names the result files, relative to paths.output_dir.
type OutputConfig struct {
	FlashFile               string `yaml:"flash_file" mapstructure:"flash_file"`
	SelfFile                string `yaml:"self_file" mapstructure:"self_file"`
	HeuraklesExhaustiveFile string `yaml:"heurakles_exhaustive_file" mapstructure:"heurakles_exhaustive_file"`
}

// EngineConfig selects the anonymization engine.
type EngineConfig struct {
	Name string `yaml:"name" mapstructure:"name"`
}

// DatabaseConfig represents the optional results database.
type DatabaseConfig struct {
	Enabled            bool   `yaml:"enabled" mapstructure:"enabled"`
	Driver             string `yaml:"driver" mapstructure:"driver"` // mysql or sqlite3
	Path               string `yaml:"path" mapstructure:"path"`     // sqlite3 only
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	Table              string `yaml:"table" mapstructure:"table"`
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
	LockTimeoutSeconds int    `yaml:"lock_timeout_seconds" mapstructure:"lock_timeout_seconds"`
}

// PublishConfig uploads result files after each suite.
type PublishConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Backend  string `yaml:"backend" mapstructure:"backend"` // local or s3
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Bucket   string `yaml:"bucket" mapstructure:"bucket"`
	Prefix   string `yaml:"prefix" mapstructure:"prefix"`
	Region   string `yaml:"region" mapstructure:"region"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
}

// MetricsConfig writes run metrics in the Prometheus text format.
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Textfile string `yaml:"textfile" mapstructure:"textfile"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config reproducing the standard benchmark.
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:      "data",
			HierarchyDir: "hierarchies",
			OutputDir:    ".",
		},
		Benchmark: BenchmarkConfig{
			Repetitions:         2,
			MeanPolicy:          string(budget.Arithmetic),
			Criteria:            []string{"k-anonymity:5", "uniqueness:0.01:USA"},
			Metrics:             []string{"Loss", "AECS"},
			Suppression:         []float64{0.0, 1.0},
			FlashDatafiles:      []string{"ADULT", "CUP", "FARS", "ATUS", "IHIS", "ACS13"},
			FlashACSQICount:     9,
			SelfDatafiles:       []string{"ACS13"},
			SelfQICounts:        []int{5, 6, 7, 8},
			SelfTimeLimitMS:     600000,
			HeuraklesExhaustive: true,
		},
		Output: OutputConfig{
			FlashFile:               "resultFlashCompare.csv",
			SelfFile:                "resultSelfCompare.csv",
			HeuraklesExhaustiveFile: "resultsHeuraklesExhaustive.csv",
		},
		Engine: EngineConfig{
			Name: "lattice",
		},
		ResultsDB: DatabaseConfig{
			Enabled:            false,
			Driver:             "sqlite3",
			Path:               "riskbench.db",
			Port:               3306,
			TLS:                "preferred",
			Table:              "benchmark_results",
			MaxConnections:     4,
			MaxIdleConnections: 2,
			LockTimeoutSeconds: 10,
		},
		Publish: PublishConfig{
			Enabled: false,
			Backend: "local",
			Dir:     "published",
			Prefix:  "riskbench",
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Textfile: "riskbench.prom",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Matrix converts the benchmark section into an experiment matrix.
func (c *Config) Matrix() (experiment.Matrix, error) {
	b := c.Benchmark
	m := experiment.Matrix{
		Suppression:     append([]float64(nil), b.Suppression...),
		FlashACSQICount: b.FlashACSQICount,
		SelfQICounts:    append([]int(nil), b.SelfQICounts...),
		SelfTimeLimit:   time.Duration(b.SelfTimeLimitMS) * time.Millisecond,
	}
	for _, s := range b.Criteria {
		crit, err := experiment.ParseCriterion(s)
		if err != nil {
			return experiment.Matrix{}, err
		}
		m.Criteria = append(m.Criteria, crit)
	}
	for _, s := range b.Metrics {
		metric, err := experiment.ParseMetric(s)
		if err != nil {
			return experiment.Matrix{}, err
		}
		m.Metrics = append(m.Metrics, metric)
	}
	var err error
	if m.FlashDatafiles, err = parseDatafiles(b.FlashDatafiles); err != nil {
		return experiment.Matrix{}, err
	}
	if m.SelfDatafiles, err = parseDatafiles(b.SelfDatafiles); err != nil {
		return experiment.Matrix{}, err
	}
	if err := m.Validate(); err != nil {
		return experiment.Matrix{}, err
	}
	return m, nil
}

func parseDatafiles(names []string) ([]dataset.Datafile, error) {
	out := make([]dataset.Datafile, 0, len(names))
	for _, name := range names {
		d, err := dataset.ParseDatafile(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Policy returns the configured mean policy.
func (c *Config) Policy() (budget.Policy, error) {
	return budget.ParsePolicy(c.Benchmark.MeanPolicy)
}

// FlashPath returns the Flash comparison result file.
func (c *Config) FlashPath() string {
	return filepath.Join(c.Paths.OutputDir, c.Output.FlashFile)
}

// SelfPath returns the self comparison result file.
func (c *Config) SelfPath() string {
	return filepath.Join(c.Paths.OutputDir, c.Output.SelfFile)
}

// HeuraklesExhaustivePath returns the unbounded Heurakles result file.
func (c *Config) HeuraklesExhaustivePath() string {
	return filepath.Join(c.Paths.OutputDir, c.Output.HeuraklesExhaustiveFile)
}
