// Package tracestore persists a register-VM execution trace to a SQL
// database: Store selects a driver (sqlite, postgres, mysql, mssql) by
// DSN scheme and writes one row per instruction the VM executes.
//
// This is entirely opt-in, selected by the CLI's --trace-db flag; an
// ordinary `vanta script.vn` run never touches it, keeping default
// execution pure read-source, write-stdout.
package tracestore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"vanta/internal/vm"
)

// schemeDriver maps a DSN scheme prefix to the database/sql driver
// name registered for it. "sqlite:" uses the pure-Go
// modernc.org/sqlite driver by default; "sqlite3cgo:" reaches the cgo
// mattn/go-sqlite3 driver for installs that prefer it.
var schemeDriver = map[string]string{
	"sqlite":      "sqlite",
	"sqlite3cgo":  "sqlite3",
	"postgres":    "postgres",
	"mysql":       "mysql",
	"sqlserver":   "sqlserver",
}

// Store persists vm.TraceEvent rows emitted by a VM run with
// --trace-db enabled.
type Store struct {
	db     *sql.DB
	driver string
	seq    int
}

// Open parses a "<scheme>://<dsn>" string, opens the matching driver
// and ensures the vm_trace table exists.
func Open(dsn string) (*Store, error) {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return nil, fmt.Errorf("tracestore: dsn %q has no scheme (expected e.g. sqlite://trace.db)", dsn)
	}
	driver, ok := schemeDriver[scheme]
	if !ok {
		return nil, fmt.Errorf("tracestore: unsupported scheme %q", scheme)
	}
	db, err := sql.Open(driver, rest)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("tracestore: ping %s: %w", driver, err)
	}
	s := &Store{db: db, driver: driver}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS vm_trace (
		seq   INTEGER,
		pc    INTEGER,
		op    VARCHAR(32),
		a1    INTEGER,
		a2    INTEGER,
		a3    INTEGER,
		depth INTEGER
	)`)
	return err
}

// placeholder renders the i-th (1-based) bind parameter the way the
// active driver expects it: "?" for sqlite/mysql, "$1"-style for
// postgres, "@p1"-style for mssql.
func (s *Store) placeholder(i int) string {
	switch s.driver {
	case "postgres":
		return fmt.Sprintf("$%d", i)
	case "sqlserver":
		return fmt.Sprintf("@p%d", i)
	default:
		return "?"
	}
}

// Record writes one trace row. It is suitable for passing directly as
// a vm.TraceFunc via vm.VM.SetTrace.
func (s *Store) Record(evt vm.TraceEvent) {
	s.seq++
	ph := make([]string, 7)
	for i := range ph {
		ph[i] = s.placeholder(i + 1)
	}
	query := fmt.Sprintf(
		`INSERT INTO vm_trace (seq, pc, op, a1, a2, a3, depth) VALUES (%s)`,
		strings.Join(ph, ", "),
	)
	// Best-effort: a trace-sink failure must not abort the program it
	// is observing.
	_, _ = s.db.Exec(query, s.seq, evt.PC, evt.Op, evt.A1, evt.A2, evt.A3, evt.Depth)
}

// Close releases the underlying database/sql connection.
func (s *Store) Close() error {
	return s.db.Close()
}
