package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// schema shadows the HRIS tables the snapshot query reads with temporary
// tables, so tests never touch real rows.
var schema = []string{
	`CREATE TEMP TABLE employees (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL,
		full_name TEXT NOT NULL,
		employment_status TEXT NOT NULL DEFAULT 'active',
		deleted_at TIMESTAMPTZ
	) ON COMMIT DROP`,
	`CREATE TEMP TABLE attendances (
		id BIGSERIAL PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		date DATE NOT NULL,
		clock_in TIMESTAMPTZ,
		clock_out TIMESTAMPTZ,
		clock_in_latitude DOUBLE PRECISION,
		clock_in_longitude DOUBLE PRECISION
	) ON COMMIT DROP`,
	`CREATE TEMP TABLE employee_location_pings (
		id BIGSERIAL PRIMARY KEY,
		employee_id TEXT NOT NULL,
		company_id TEXT NOT NULL,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	) ON COMMIT DROP`,
}

// newTestTx connects to TEST_DATABASE_URL and returns a context carrying a
// transaction with the shadow schema. The transaction is rolled back when
// the test ends. Tests are skipped without a database.
func newTestTx(t *testing.T) (context.Context, *database.DB, pgx.Tx) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	for _, stmt := range schema {
		_, err := tx.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	return context.WithValue(ctx, "tx", tx), db, tx
}
