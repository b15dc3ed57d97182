package datastore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

const (
	Postgres = "postgres"
	SQLite   = "sqlite3"
)

// NewDB takes arguments for db type and conn string and returns an open, pinged connection
func NewDB(dbtype string, connstr string) (*sql.DB, error) {
	if dbtype != Postgres && dbtype != SQLite {
		return nil, fmt.Errorf("unsupported database type %q", dbtype)
	}

	db, openError := sql.Open(dbtype, connstr)
	if openError != nil {
		return nil, fmt.Errorf("error opening connection -> %v", openError)
	}

	// every connection to :memory: is a separate database
	if dbtype == SQLite && strings.Contains(connstr, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if pingError := db.Ping(); pingError != nil {
		db.Close()
		return nil, fmt.Errorf("could not establish connection with database -> %v", pingError)
	}

	return db, nil
}

// BuildDBConnStr builds a PostgreSQL connection string
func BuildDBConnStr(password, user, host, dbname, sslmode string) string {
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s", user, password, host, dbname, sslmode)
}

// BuildSQLiteConnStr builds a SQLite DSN for path with foreign keys enforced.
func BuildSQLiteConnStr(path string) string {
	if path == "" || path == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return fmt.Sprintf("file:%s?_foreign_keys=on", path)
}

type NoRowsError struct {
	NoRows bool
	Err    error
}

func (nr NoRowsError) Error() string {
	return fmt.Sprintf("%v: no rows returned for scan: %v", nr.NoRows, nr.Err)
}

func (nr NoRowsError) Unwrap() error {
	return nr.Err
}

// IsNoRows reports whether err came from a lookup that matched nothing.
func IsNoRows(err error) bool {
	var nr NoRowsError
	return errors.As(err, &nr)
}

// ConflictError is returned when a write violates a unique constraint.
type ConflictError struct {
	Resource string
	Err      error
}

func (ce ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %v", ce.Resource, ce.Err)
}

func (ce ConflictError) Unwrap() error {
	return ce.Err
}

// IsConflict reports whether err is a unique constraint violation.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
