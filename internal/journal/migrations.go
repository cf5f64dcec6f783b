package journal

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for the journal tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS actions (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		seq           INTEGER NOT NULL,
		action        TEXT NOT NULL,
		ok            INTEGER NOT NULL,
		message       TEXT NOT NULL DEFAULT '',
		error         TEXT NOT NULL DEFAULT '',
		refresh_error TEXT NOT NULL DEFAULT '',
		duration_ms   INTEGER NOT NULL DEFAULT 0,
		created_at    TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action)`,
}

// alterStatements are column additions. SQLite has no
// ADD COLUMN IF NOT EXISTS, so each is checked against table_info first.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string
}{
	{
		table:    "actions",
		column:   "pid",
		alterSQL: "ALTER TABLE actions ADD COLUMN pid INTEGER NOT NULL DEFAULT 0",
		indexSQL: "CREATE INDEX IF NOT EXISTS idx_actions_pid ON actions(pid) WHERE pid != 0",
	},
	{
		table:    "actions",
		column:   "step_time",
		alterSQL: "ALTER TABLE actions ADD COLUMN step_time INTEGER NOT NULL DEFAULT 0",
	},
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	for _, alter := range alterStatements {
		if err := addColumnIfNotExists(ctx, db, alter.table, alter.column, alter.alterSQL); err != nil {
			return err
		}
		if alter.indexSQL != "" {
			if _, err := db.ExecContext(ctx, alter.indexSQL); err != nil {
				return err
			}
		}
	}
	return nil
}

func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return err
		}
		if strings.EqualFold(name, column) {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	rows.Close()

	_, err = db.ExecContext(ctx, alterSQL)
	return err
}
