package sqlindex

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

// SchemaVersion is the user_version written after all upgrade steps ran.
const SchemaVersion = 1

// upgrades[i] moves the schema from version i to i+1. Steps create
// structure only; no rows are migrated between versions.
var upgrades = []string{
	// v0 -> v1: entries table keyed by id, secondary index on name.
	`CREATE TABLE IF NOT EXISTS entries (
		id          TEXT PRIMARY KEY NOT NULL,
		name        TEXT NOT NULL,
		icon        TEXT NOT NULL DEFAULT '',
		type        TEXT NOT NULL,
		parent      TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		created     INTEGER NOT NULL,
		modified    INTEGER NOT NULL
	) WITHOUT ROWID;
	CREATE INDEX IF NOT EXISTS entries_name ON entries(name, id);`,
}

// userVersion reads PRAGMA user_version.
func userVersion(conn *sqlite.Conn) (int, error) {
	version := 0
	err := sqlitex.ExecuteTransient(conn, "PRAGMA user_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	if err != nil {
		return 0, fmt.Errorf("read user_version: %w", err)
	}
	return version, nil
}

// upgrade brings the database to SchemaVersion inside one IMMEDIATE
// transaction. It returns the version found before upgrading.
func upgrade(conn *sqlite.Conn) (from int, err error) {
	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("begin upgrade: %w", err)
	}
	defer endTransaction(&err)

	from, err = userVersion(conn)
	if err != nil {
		return 0, err
	}
	if from > SchemaVersion {
		return from, fmt.Errorf("index schema version %d is newer than supported %d", from, SchemaVersion)
	}

	for v := from; v < SchemaVersion; v++ {
		if err := sqlitex.ExecuteScript(conn, upgrades[v], nil); err != nil {
			return from, fmt.Errorf("upgrade to v%d: %w", v+1, err)
		}
	}

	if from != SchemaVersion {
		pragma := fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return from, fmt.Errorf("write user_version: %w", err)
		}
	}
	return from, nil
}
