package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		expectedTables := []string{
			"contracts",
			"bars_1m",
			"market_holidays",
		}

		for _, tableName := range expectedTables {
			var exists bool
			err := testDB.GetRawConn().QueryRow(`
				SELECT EXISTS (
					SELECT FROM information_schema.tables
					WHERE table_schema = 'public'
					AND table_name = $1
				)
			`, tableName).Scan(&exists)

			require.NoError(t, err, "failed to check table existence for %s", tableName)
			assert.True(t, exists, "table %s should exist", tableName)
		}
	})

	t.Run("bars_1m table has correct columns", func(t *testing.T) {
		expectedColumns := map[string]string{
			"id":         "bigint",
			"code":       "character varying",
			"ts":         "timestamp without time zone",
			"open":       "numeric",
			"high":       "numeric",
			"low":        "numeric",
			"close":      "numeric",
			"volume":     "bigint",
			"created_at": "timestamp without time zone",
		}

		for colName, expectedType := range expectedColumns {
			var actualType string
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type
				FROM information_schema.columns
				WHERE table_name = 'bars_1m' AND column_name = $1
			`, colName).Scan(&actualType)

			require.NoError(t, err, "column %s should exist in bars_1m table", colName)
			assert.Equal(t, expectedType, actualType, "column %s should have type %s", colName, expectedType)
		}
	})

	t.Run("bars_1m enforces unique code and ts", func(t *testing.T) {
		var constraint string
		err := testDB.GetRawConn().QueryRow(`
			SELECT constraint_name
			FROM information_schema.table_constraints
			WHERE table_name = 'bars_1m' AND constraint_type = 'UNIQUE'
		`).Scan(&constraint)

		require.NoError(t, err)
		assert.Equal(t, "bars_1m_code_ts_key", constraint)
	})

	t.Run("contracts table is seeded", func(t *testing.T) {
		var count int
		err := testDB.GetRawConn().QueryRow(`SELECT COUNT(*) FROM contracts`).Scan(&count)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, count, 1, "migrations should seed at least one contract")
	})
}
