package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configContent := `
paths:
  data_dir: /srv/bench/data
  hierarchy_dir: /srv/bench/hierarchies
  output_dir: /srv/bench/results

benchmark:
  repetitions: 5
  mean_policy: geometric
  criteria:
    - k-anonymity:10
  metrics:
    - Loss:arithmetic_mean
  suppression: [0.05]
  flash_datafiles: [ADULT, Fars]
  self_qi_counts: [3, 4]
  heurakles_exhaustive: false

results_db:
  enabled: true
  driver: mysql
  host: db.internal
  user: bench
  database: riskbench

logging:
  level: debug
  format: json
  output: stdout
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify paths
	if cfg.Paths.DataDir != "/srv/bench/data" {
		t.Errorf("expected data_dir '/srv/bench/data', got %s", cfg.Paths.DataDir)
	}

	// Verify benchmark section
	if cfg.Benchmark.Repetitions != 5 {
		t.Errorf("expected repetitions 5, got %d", cfg.Benchmark.Repetitions)
	}
	if cfg.Benchmark.MeanPolicy != "geometric" {
		t.Errorf("expected mean policy 'geometric', got %s", cfg.Benchmark.MeanPolicy)
	}
	if len(cfg.Benchmark.Criteria) != 1 || cfg.Benchmark.Criteria[0] != "k-anonymity:10" {
		t.Errorf("expected criteria to be replaced, got %v", cfg.Benchmark.Criteria)
	}
	if len(cfg.Benchmark.FlashDatafiles) != 2 {
		t.Errorf("expected 2 flash datafiles, got %v", cfg.Benchmark.FlashDatafiles)
	}
	if cfg.Benchmark.HeuraklesExhaustive {
		t.Errorf("expected heurakles_exhaustive false")
	}

	// Defaults survive for keys not in the file
	if cfg.Benchmark.FlashACSQICount != 9 {
		t.Errorf("expected default flash_acs_qi_count 9, got %d", cfg.Benchmark.FlashACSQICount)
	}
	if cfg.ResultsDB.Port != 3306 {
		t.Errorf("expected default port 3306, got %d", cfg.ResultsDB.Port)
	}
	if cfg.Output.SelfFile != "resultSelfCompare.csv" {
		t.Errorf("expected default self file, got %s", cfg.Output.SelfFile)
	}

	m, err := cfg.Matrix()
	if err != nil {
		t.Fatalf("failed to build matrix: %v", err)
	}
	if m.FlashCardinality() != 2 {
		t.Errorf("expected 2 flash cells, got %d", m.FlashCardinality())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "riskbench.yaml")

	cfg, err := LoadOrDefault(missing, false)
	if err != nil {
		t.Fatalf("expected defaults for implicit missing file, got: %v", err)
	}
	if cfg.Benchmark.Repetitions != 2 {
		t.Errorf("expected default repetitions, got %d", cfg.Benchmark.Repetitions)
	}

	if _, err := LoadOrDefault(missing, true); err == nil {
		t.Error("expected error for explicit missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	if err := os.WriteFile(configPath, []byte("benchmark: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestEnvVarSubstitution(t *testing.T) {
	t.Setenv("RISKBENCH_TEST_DATA", "/mnt/data")
	t.Setenv("RISKBENCH_TEST_PASSWORD", "s3cret")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "env.yaml")
	configContent := `
paths:
  data_dir: ${RISKBENCH_TEST_DATA}/csv
results_db:
  password: $RISKBENCH_TEST_PASSWORD
  user: ${RISKBENCH_TEST_UNSET}
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Paths.DataDir != "/mnt/data/csv" {
		t.Errorf("expected '/mnt/data/csv', got %s", cfg.Paths.DataDir)
	}
	if cfg.ResultsDB.Password != "s3cret" {
		t.Errorf("expected password from env, got %s", cfg.ResultsDB.Password)
	}
	if cfg.ResultsDB.User != "${RISKBENCH_TEST_UNSET}" {
		t.Errorf("expected unset variable left as is, got %s", cfg.ResultsDB.User)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyOverrides("debug", "json", 3, "geometric", "custom")

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected format 'json', got %s", cfg.Logging.Format)
	}
	if cfg.Benchmark.Repetitions != 3 {
		t.Errorf("expected repetitions 3, got %d", cfg.Benchmark.Repetitions)
	}
	if cfg.Benchmark.MeanPolicy != "geometric" {
		t.Errorf("expected geometric, got %s", cfg.Benchmark.MeanPolicy)
	}
	if cfg.Engine.Name != "custom" {
		t.Errorf("expected engine 'custom', got %s", cfg.Engine.Name)
	}

	// Zero values leave the config alone
	cfg.ApplyOverrides("", "", 0, "", "")
	if cfg.Benchmark.Repetitions != 3 {
		t.Errorf("expected repetitions to stay 3, got %d", cfg.Benchmark.Repetitions)
	}
}
