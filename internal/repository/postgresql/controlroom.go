package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
	"github.com/cmlabs-hris/hris-controlroom-go/internal/pkg/database"
)

// pingLookback limits how far back a location ping may be used as the
// last known position.
const pingLookback = 24 * time.Hour

type controlRoomRepository struct {
	db      *database.DB
	windows controlroom.FreshnessWindows
}

func NewControlRoomRepository(db *database.DB, windows controlroom.FreshnessWindows) controlroom.SnapshotRepository {
	return &controlRoomRepository{db: db, windows: windows}
}

// ListMarkers implements controlroom.SnapshotRepository.
func (r *controlRoomRepository) ListMarkers(ctx context.Context, companyID string, now time.Time) ([]controlroom.MarkerInput, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.full_name,
			   a.clock_in, a.clock_out, a.clock_in_latitude, a.clock_in_longitude,
			   p.latitude, p.longitude, p.recorded_at
		FROM employees e
		LEFT JOIN LATERAL (
			SELECT clock_in, clock_out, clock_in_latitude, clock_in_longitude
			FROM attendances
			WHERE employee_id = e.id
			  AND company_id = e.company_id
			  AND date = $2::date
			  AND clock_in IS NOT NULL
			ORDER BY clock_in DESC
			LIMIT 1
		) a ON TRUE
		LEFT JOIN LATERAL (
			SELECT latitude, longitude, recorded_at
			FROM employee_location_pings
			WHERE employee_id = e.id
			  AND company_id = e.company_id
			  AND recorded_at >= $3
			  AND recorded_at <= $4
			ORDER BY recorded_at DESC
			LIMIT 1
		) p ON TRUE
		WHERE e.company_id = $1
		  AND e.employment_status = 'active'
		  AND e.deleted_at IS NULL
		ORDER BY e.full_name, e.id
	`

	rows, err := q.Query(ctx, query, companyID, now.Format("2006-01-02"), now.Add(-pingLookback), now)
	if err != nil {
		return nil, fmt.Errorf("failed to query live positions: %w", err)
	}
	defer rows.Close()

	var markers []controlroom.MarkerInput
	for rows.Next() {
		var p controlroom.LivePosition
		if err := rows.Scan(
			&p.EmployeeID, &p.EmployeeName,
			&p.ClockIn, &p.ClockOut, &p.ClockInLat, &p.ClockInLon,
			&p.PingLat, &p.PingLon, &p.PingAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan live position: %w", err)
		}

		m, ok := p.ToMarker(now, r.windows)
		if !ok {
			continue
		}
		if !m.HasValidCoordinates() {
			slog.Warn("Live position dropped, invalid coordinate",
				"company_id", companyID, "employee_id", p.EmployeeID, "lat", m.Lat, "lon", m.Lon)
			continue
		}
		markers = append(markers, m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating live positions: %w", err)
	}

	return markers, nil
}
