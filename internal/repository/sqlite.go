package repository

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"
)

// Dialect tells repositories how to write bind parameters.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

var numberedParam = regexp.MustCompile(`\$\d+`)

// Rebind rewrites a query written with Postgres $n placeholders for d. Placeholders must appear
// in ascending order, which holds for every query in this repository.
func (d Dialect) Rebind(query string) string {
	if d == SQLite {
		return numberedParam.ReplaceAllString(query, "?")
	}
	return query
}

// OpenSQLite opens (or creates) a SQLite database in WAL mode. ":memory:" opens a private
// in-memory database limited to one connection so every query sees the same data.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create sqlite dir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	return db, nil
}
