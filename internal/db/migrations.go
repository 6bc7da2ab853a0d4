package db

import (
	"fmt"

	"gorm.io/gorm"
)

// migrationStatements are replayed on every start, so each one must be
// idempotent on its own.
var migrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS mps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		constituency TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		house TEXT NOT NULL DEFAULT '',
		party TEXT,
		allocated_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		total_expenditure NUMERIC(18,2) NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS works (
		id BIGSERIAL PRIMARY KEY,
		work_id TEXT NOT NULL,
		status TEXT NOT NULL CHECK (status IN ('completed', 'recommended', 'in_progress')),
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		cost NUMERIC(18,2) NOT NULL DEFAULT 0,
		recommended_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
		final_amount NUMERIC(18,2),
		mp_id TEXT NOT NULL REFERENCES mps(id),
		mp_name TEXT NOT NULL DEFAULT '',
		constituency TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		house TEXT NOT NULL DEFAULT '',
		recommendation_date DATE,
		completed_date DATE
	);`,
	`CREATE INDEX IF NOT EXISTS idx_mps_state ON mps (LOWER(state));`,
	`CREATE INDEX IF NOT EXISTS idx_mps_house ON mps (LOWER(house));`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_works_status_work_id ON works (status, work_id);`,
	`CREATE INDEX IF NOT EXISTS idx_works_mp_status ON works (mp_id, status);`,
	`CREATE INDEX IF NOT EXISTS idx_works_state_status ON works (LOWER(state), status);`,
	`CREATE INDEX IF NOT EXISTS idx_works_completed_order ON works (status, completed_date DESC NULLS LAST, work_id);`,
	`CREATE INDEX IF NOT EXISTS idx_works_recommended_order ON works (status, recommendation_date DESC NULLS LAST, work_id);`,
	`CREATE TABLE IF NOT EXISTS work_payments (
		id BIGSERIAL PRIMARY KEY,
		work_pk BIGINT NOT NULL REFERENCES works(id) ON DELETE CASCADE,
		amount NUMERIC(18,2) NOT NULL,
		paid_at DATE NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_work_payments_work_pk ON work_payments (work_pk);`,
	`CREATE TABLE IF NOT EXISTS mp_work_summaries (
		mp_id TEXT NOT NULL REFERENCES mps(id) ON DELETE CASCADE,
		status TEXT NOT NULL,
		total_works BIGINT NOT NULL DEFAULT 0,
		total_cost NUMERIC(18,2) NOT NULL DEFAULT 0,
		refreshed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (mp_id, status)
	);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
