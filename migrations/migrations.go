package migrations

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

//go:embed postgres/*.sql sqlite3/*.sql
var files embed.FS

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// RunMigrations executes all pending migrations for the given dialect
// ("postgres" or "sqlite3").
func RunMigrations(db *sql.DB, dialect string, log logrus.FieldLogger) error {
	log = log.WithField("component", "migrations")
	log.Info("Starting database migrations...")

	// Create migrations tracking table if it doesn't exist
	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	appliedMigrations, err := getAppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := ReadMigrations(dialect)
	if err != nil {
		return fmt.Errorf("failed to read migration files: %w", err)
	}

	for _, migration := range migrations {
		entry := log.WithField("migration", fmt.Sprintf("%03d_%s", migration.Version, migration.Name))

		if _, applied := appliedMigrations[migration.Version]; applied {
			entry.Debug("Migration already applied, skipping")
			continue
		}

		entry.Info("Applying migration")
		if err := applyMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %03d_%s: %w", migration.Version, migration.Name, err)
		}
	}

	log.Info("All migrations completed successfully")
	return nil
}

// createMigrationsTable creates the schema_migrations table
func createMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	_, err := db.Exec(query)
	return err
}

// getAppliedMigrations returns the applied migration versions and when each ran
func getAppliedMigrations(db *sql.DB) (map[int]time.Time, error) {
	query := `SELECT version, applied_at FROM schema_migrations ORDER BY version`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, err
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Status pairs an embedded migration with when it was applied, if at all.
type Status struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt time.Time
}

// Statuses reports every embedded migration for dialect and whether it has
// been applied to db.
func Statuses(db *sql.DB, dialect string) ([]Status, error) {
	if err := createMigrationsTable(db); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(db)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	migrations, err := ReadMigrations(dialect)
	if err != nil {
		return nil, err
	}

	statuses := make([]Status, len(migrations))
	for i, m := range migrations {
		at, ok := applied[m.Version]
		statuses[i] = Status{Version: m.Version, Name: m.Name, Applied: ok, AppliedAt: at}
	}
	return statuses, nil
}

// ReadMigrations returns the embedded migrations for dialect sorted by version.
func ReadMigrations(dialect string) ([]Migration, error) {
	entries, err := fs.ReadDir(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("no migrations for dialect %q: %w", dialect, err)
	}

	var migrations []Migration
	for _, file := range entries {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		// e.g. "001_create_patterns.sql"
		var version int
		var name string
		if _, err := fmt.Sscanf(file.Name(), "%d_%s", &version, &name); err != nil {
			return nil, fmt.Errorf("invalid migration file name %s", file.Name())
		}
		name = strings.TrimSuffix(name, ".sql")

		content, err := fs.ReadFile(files, path.Join(dialect, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", file.Name(), err)
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    name,
			SQL:     string(content),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// applyMigration executes a migration and records it in schema_migrations
func applyMigration(db *sql.DB, migration Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(migration.SQL); err != nil {
		return err
	}

	recordQuery := `
		INSERT INTO schema_migrations (version, name, applied_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)`

	if _, err := tx.Exec(recordQuery, migration.Version, migration.Name); err != nil {
		return err
	}

	return tx.Commit()
}
