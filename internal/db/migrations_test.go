package db

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var createStatement = regexp.MustCompile(`^CREATE (UNIQUE )?(TABLE|INDEX) IF NOT EXISTS `)

func TestMigrationsAreIdempotentCreates(t *testing.T) {
	for i, stmt := range migrationStatements {
		stmt = strings.TrimSpace(stmt)
		assert.Regexp(t, createStatement, stmt, "statement %d", i+1)
		assert.NotContains(t, stmt, "DO $$", "statement %d", i+1)
		assert.NotContains(t, stmt, "ALTER TABLE", "statement %d", i+1)
	}
}

func TestWorksTableCarriesFinalAmount(t *testing.T) {
	var works string
	for _, stmt := range migrationStatements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS works (") {
			works = stmt
		}
	}
	assert.Contains(t, works, "final_amount NUMERIC(18,2)")
}
