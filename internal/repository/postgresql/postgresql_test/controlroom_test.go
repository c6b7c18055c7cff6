package postgresql_test

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlRoomRepository_ListMarkers(t *testing.T) {
	ctx, db, tx := newTestTx(t)

	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	day := now.Format("2006-01-02")

	exec := func(sql string, args ...interface{}) {
		t.Helper()
		_, err := tx.Exec(ctx, sql, args...)
		require.NoError(t, err)
	}

	exec(`INSERT INTO employees (id, company_id, full_name, employment_status, deleted_at) VALUES
		('e-live', 'c1', 'Ayu', 'active', NULL),
		('e-stale', 'c1', 'Budi', 'active', NULL),
		('e-clockin', 'c1', 'Citra', 'active', NULL),
		('e-nowhere', 'c1', 'Dewi', 'active', NULL),
		('e-broken', 'c1', 'Eka', 'active', NULL),
		('e-gone', 'c1', 'Fajar', 'inactive', NULL),
		('e-other', 'c2', 'Gita', 'active', NULL)`)

	exec(`INSERT INTO attendances (employee_id, company_id, date, clock_in, clock_out, clock_in_latitude, clock_in_longitude) VALUES
		('e-live', 'c1', $1, $2, NULL, -6.20, 106.80),
		('e-stale', 'c1', $1, $2, $3, -6.21, 106.81),
		('e-clockin', 'c1', $1, $2, NULL, -6.22, 106.82),
		('e-broken', 'c1', $1, $2, NULL, 123, 106.82),
		('e-other', 'c2', $1, $2, NULL, -6.23, 106.83)`,
		day, now.Add(-2*time.Hour), now.Add(-30*time.Minute))

	exec(`INSERT INTO employee_location_pings (employee_id, company_id, latitude, longitude, recorded_at) VALUES
		('e-live', 'c1', -6.10, 106.70, $1),
		('e-live', 'c1', -6.11, 106.71, $2),
		('e-stale', 'c1', -6.30, 106.90, $3)`,
		now.Add(-time.Minute), now.Add(-time.Hour), now.Add(-10*time.Minute))

	repo := postgresql.NewControlRoomRepository(db, controlroom.FreshnessWindows{Live: 5 * time.Minute, Stale: 30 * time.Minute})
	markers, err := repo.ListMarkers(ctx, "c1", now)
	require.NoError(t, err)

	assert.Equal(t, []controlroom.MarkerInput{
		{ID: "e-live", Lat: -6.10, Lon: 106.70, Label: "Ayu", PrimaryStatus: controlroom.PrimaryInProgress, SecondaryStatus: controlroom.SecondaryLive},
		{ID: "e-stale", Lat: -6.30, Lon: 106.90, Label: "Budi", PrimaryStatus: controlroom.PrimaryFinished, SecondaryStatus: controlroom.SecondaryStale},
		{ID: "e-clockin", Lat: -6.22, Lon: 106.82, Label: "Citra", PrimaryStatus: controlroom.PrimaryInProgress, SecondaryStatus: controlroom.SecondaryNone},
	}, markers)
}

func TestControlRoomRepository_EmptyCompany(t *testing.T) {
	ctx, db, _ := newTestTx(t)

	repo := postgresql.NewControlRoomRepository(db, controlroom.FreshnessWindows{Live: time.Minute, Stale: time.Hour})
	markers, err := repo.ListMarkers(ctx, "nobody", time.Now())
	require.NoError(t, err)
	assert.Empty(t, markers)
}
