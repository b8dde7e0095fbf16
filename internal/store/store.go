// Package store mirrors result files into a SQL table so sweeps can be queried
// after the fact. MySQL and SQLite are supported.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/mattn/go-sqlite3"    // SQLite driver

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/config"
	"github.com/dbsmedya/riskbench/internal/experiment"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Open connects to the results database, retrying with exponential backoff.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = connect(cfg)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, bencherr.IO("store.Open", cfg.Driver, fmt.Errorf("failed after %d retries: %w", maxRetries, err))
}

func connect(cfg *config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, DataSource(cfg))
	if err != nil {
		return nil, err
	}

	if cfg.Driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
		return db, nil
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
	}
	if cfg.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)
	return db, nil
}

// DataSource returns the driver-specific data source name.
func DataSource(cfg *config.DatabaseConfig) string {
	if cfg.Driver == DriverSQLite {
		return "file:" + cfg.Path + "?_busy_timeout=5000&_journal_mode=WAL"
	}
	return BuildDSN(cfg)
}

// BuildDSN constructs a MySQL DSN from configuration.
func BuildDSN(cfg *config.DatabaseConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

var identifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// quoteIdentifier validates name and quotes it with backticks, which both
// MySQL and SQLite accept.
func quoteIdentifier(name string) (string, error) {
	if !identifierRegex.MatchString(name) {
		return "", bencherr.Config("store.quoteIdentifier", name, "table name must contain only alphanumeric characters and underscores")
	}
	return "`" + name + "`", nil
}

// Sink writes result snapshots of one sweep.
type Sink struct {
	db      *sql.DB
	table   string
	sweepID string
}

// NewSink creates a Sink writing to table, tagging every row with sweepID.
func NewSink(db *sql.DB, table, sweepID string) (*Sink, error) {
	quoted, err := quoteIdentifier(table)
	if err != nil {
		return nil, err
	}
	return &Sink{db: db, table: quoted, sweepID: sweepID}, nil
}

// SweepID returns the identifier written with every row.
func (s *Sink) SweepID() string {
	return s.sweepID
}

// EnsureSchema creates the results table if it does not exist.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + s.table + ` (
	sweep_id VARCHAR(36) NOT NULL,
	suite VARCHAR(255) NOT NULL,
	row_order INTEGER NOT NULL,
	criterium VARCHAR(64) NOT NULL,
	dataset VARCHAR(16) NOT NULL,
	custom_qis VARCHAR(8) NOT NULL,
	metric VARCHAR(32) NOT NULL,
	suppression VARCHAR(16) NOT NULL,
	algorithm VARCHAR(16) NOT NULL,
	measure VARCHAR(64) NOT NULL,
	value DOUBLE NULL
)`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return bencherr.IO("store.EnsureSchema", s.table, err)
	}
	return nil
}

// Save replaces the rows of suite in this sweep with the given snapshot. The
// header must start with the experiment variables; every further column is a
// measure and becomes one row per result line. Empty cells are stored as NULL.
func (s *Sink) Save(ctx context.Context, suite string, header []string, rows [][]string) error {
	nvars := len(experiment.Variables)
	if len(header) < nvars || strings.Join(header[:nvars], ";") != strings.Join(experiment.Variables, ";") {
		return bencherr.Malformed("store.Save", suite, "header %v does not start with %v", header, experiment.Variables)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return bencherr.IO("store.Save", suite, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM "+s.table+" WHERE sweep_id = ? AND suite = ?", s.sweepID, suite); err != nil {
		return bencherr.IO("store.Save", suite, err)
	}

	insert := "INSERT INTO " + s.table +
		" (sweep_id, suite, row_order, criterium, dataset, custom_qis, metric, suppression, algorithm, measure, value)" +
		" VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	for i, row := range rows {
		if len(row) != len(header) {
			return bencherr.Malformed("store.Save", suite, "row %d has %d cells, expected %d", i, len(row), len(header))
		}
		for col := nvars; col < len(header); col++ {
			value, err := cellValue(row[col])
			if err != nil {
				return bencherr.Malformed("store.Save", suite, "row %d column %q: %v", i, header[col], err)
			}
			args := []interface{}{s.sweepID, suite, i}
			for _, v := range row[:nvars] {
				args = append(args, v)
			}
			args = append(args, header[col], value)
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return bencherr.IO("store.Save", suite, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return bencherr.IO("store.Save", suite, err)
	}
	return nil
}

func cellValue(s string) (interface{}, error) {
	if s == "" {
		return nil, nil
	}
	return strconv.ParseFloat(s, 64)
}
