package metadata

import (
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"blaze/internal/blazeerr"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	Version int
	SQL     string
}

// loadMigrations reads and orders the embedded schema migrations, named
// "NNN_description.sql". Grounded directly on the teacher's
// internal/config/sqlite/migrate.go.
func loadMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, blazeerr.Wrap(blazeerr.Database, "read migrations directory", err)
	}

	var migrations []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 2)
		if len(parts) < 2 {
			return nil, blazeerr.New(blazeerr.Database, fmt.Sprintf("invalid migration filename: %s", e.Name()))
		}
		version, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("invalid migration version in %s", e.Name()), err)
		}
		data, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("read migration %s", e.Name()), err)
		}
		migrations = append(migrations, migration{Version: version, SQL: string(data)})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY) STRICT`); err != nil {
		return blazeerr.Wrap(blazeerr.Database, "create schema_migrations", err)
	}

	applied := map[int]bool{}
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return blazeerr.Wrap(blazeerr.Database, "query applied migrations", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return blazeerr.Wrap(blazeerr.Database, "scan migration version", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return blazeerr.Wrap(blazeerr.Database, "iterate migration versions", err)
	}
	rows.Close()

	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("begin migration %d", m.Version), err)
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("execute migration %d", m.Version), err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("record migration %d", m.Version), err)
		}
		if err := tx.Commit(); err != nil {
			return blazeerr.Wrap(blazeerr.Database, fmt.Sprintf("commit migration %d", m.Version), err)
		}
	}
	return nil
}
