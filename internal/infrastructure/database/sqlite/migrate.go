package sqlite

import (
	"database/sql"
	"fmt"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS sequences (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id              TEXT PRIMARY KEY,
		task_type       TEXT NOT NULL,
		status          TEXT NOT NULL,
		assignee_id     TEXT NOT NULL DEFAULT '',
		related_task_id TEXT NOT NULL DEFAULT '',
		created_at      TEXT NOT NULL,
		doc             TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks (assignee_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status, assignee_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_related ON tasks (related_task_id, task_type)`,
	`CREATE TABLE IF NOT EXISTS assets (
		id                 TEXT PRIMARY KEY,
		title              TEXT NOT NULL,
		application_number TEXT NOT NULL DEFAULT '',
		brand_text         TEXT NOT NULL DEFAULT '',
		created_at         TEXT NOT NULL,
		doc                TEXT NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_application_number
		ON assets (application_number) WHERE application_number <> ''`,
	`CREATE TABLE IF NOT EXISTS asset_transactions (
		id         TEXT PRIMARY KEY,
		asset_id   TEXT NOT NULL REFERENCES assets (id) ON DELETE CASCADE,
		task_id    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		doc        TEXT NOT NULL,
		UNIQUE (asset_id, task_id)
	)`,
	`CREATE TABLE IF NOT EXISTS accruals (
		id         TEXT PRIMARY KEY,
		task_id    TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		doc        TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_accruals_task ON accruals (task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_accruals_status ON accruals (status, created_at)`,
	`CREATE TABLE IF NOT EXISTS suits (
		id         TEXT PRIMARY KEY,
		task_id    TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		doc        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS suit_transactions (
		id         TEXT PRIMARY KEY,
		suit_id    TEXT NOT NULL REFERENCES suits (id) ON DELETE CASCADE,
		task_id    TEXT NOT NULL,
		created_at TEXT NOT NULL,
		doc        TEXT NOT NULL,
		UNIQUE (suit_id, task_id)
	)`,
	`CREATE TABLE IF NOT EXISTS assignment_rules (
		task_type TEXT PRIMARY KEY,
		doc       TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

//Personal.AI order the ending
