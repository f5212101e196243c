package store

import (
	"context"
	"database/sql"
	"strings"
)

// schema contains the DDL for the stub ledger.
// Each statement uses IF NOT EXISTS for idempotency. Money is stored as
// decimal text so no value passes through a float.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		username      TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS accounts (
		user_id    INTEGER PRIMARY KEY REFERENCES users(id),
		name       TEXT NOT NULL,
		balance    TEXT NOT NULL DEFAULT '0',
		is_active  INTEGER NOT NULL DEFAULT 1,
		gender     INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS bank_groups (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		balance     TEXT NOT NULL DEFAULT '0',
		admin_id    INTEGER NOT NULL REFERENCES users(id),
		is_active   INTEGER NOT NULL DEFAULT 1,
		created_at  TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS group_members (
		group_id  INTEGER NOT NULL REFERENCES bank_groups(id),
		user_id   INTEGER NOT NULL REFERENCES users(id),
		is_admin  INTEGER NOT NULL DEFAULT 0,
		joined_at TEXT NOT NULL,
		PRIMARY KEY (group_id, user_id)
	)`,

	// One row per affected user; amount is signed from that user's view.
	`CREATE TABLE IF NOT EXISTS transactions (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL REFERENCES users(id),
		from_name  TEXT NOT NULL,
		to_name    TEXT NOT NULL,
		amount     TEXT NOT NULL,
		type       TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_group_members_user_id ON group_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id)`,
}

// alterStatements are column additions that need special handling since
// SQLite doesn't support IF NOT EXISTS for ALTER TABLE ADD COLUMN.
var alterStatements = []struct {
	table    string
	column   string
	alterSQL string
	indexSQL string // Optional index to create after column is added
}{
	{
		table:    "accounts",
		column:   "updated_at",
		alterSQL: "ALTER TABLE accounts ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''",
	},
	{
		table:    "transactions",
		column:   "description",
		alterSQL: "ALTER TABLE transactions ADD COLUMN description TEXT NOT NULL DEFAULT ''",
	},
	{
		table:    "transactions",
		column:   "group_id",
		alterSQL: "ALTER TABLE transactions ADD COLUMN group_id INTEGER",
		indexSQL: "CREATE INDEX IF NOT EXISTS idx_transactions_group_id ON transactions(group_id) WHERE group_id IS NOT NULL",
	},
}

// migrate executes all schema DDL statements, alter migrations, and post-migration indexes.
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

// addColumnIfNotExists adds a column to a table if it doesn't already exist.
func addColumnIfNotExists(ctx context.Context, db *sql.DB, table, column, alterSQL string) error {
	exists, err := hasColumn(ctx, db, table, column)
	if err != nil || exists {
		return err
	}
	_, err = db.ExecContext(ctx, alterSQL)
	return err
}

func hasColumn(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue *string
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if strings.EqualFold(name, column) {
			return true, nil
		}
	}
	return false, rows.Err()
}
