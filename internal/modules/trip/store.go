// README: Trip store backed by PostgreSQL: eligible-flight reads and ride persistence.
package trip

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pickup/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// FetchEligible returns unmatched flights whose pickup window opens inside
// [from, to], joined with the rider's school, ordered by date then earliest
// time so downstream tie-breaking is stable.
func (s *Store) FetchEligible(ctx context.Context, from, to time.Time) ([]Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.user_id, f.flight_id, f.flight_no,
		       f.airport, f.to_airport,
		       to_char(f.date, 'YYYY-MM-DD'),
		       to_char(f.earliest_time, 'HH24:MI:SS'),
		       to_char(f.latest_time, 'HH24:MI:SS'),
		       f.terminal, f.bag_no, f.bag_no_large,
		       u.school
		FROM flights f
		JOIN users u ON u.user_id = f.user_id
		WHERE f.matched = FALSE
		  AND (f.date + f.earliest_time) >= $1
		  AND (f.date + f.earliest_time) <= $2
		ORDER BY f.date, f.earliest_time, f.flight_id`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var userID string
		if err := rows.Scan(
			&userID, &r.FlightID, &r.FlightNo,
			&r.Airport, &r.ToAirport,
			&r.Date, &r.EarliestTime, &r.LatestTime,
			&r.Terminal, &r.BagsSmall, &r.BagsLarge,
			&r.School,
		); err != nil {
			return nil, err
		}
		r.UserID = types.ID(userID)
		records = append(records, r)
	}
	return records, rows.Err()
}

// CreateRide inserts a ride row for the given local date and returns its id.
func (s *Store) CreateRide(ctx context.Context, rideDate string) (int64, error) {
	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO rides (ride_date) VALUES ($1)
		RETURNING ride_id`, rideDate,
	).Scan(&id)
	return id, err
}

// AddMembers attaches the matched riders to a ride. The inserts run in one
// transaction: a ride never ends up with a partial member set.
func (s *Store) AddMembers(ctx context.Context, rideID int64, members []Member) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, m := range members {
		if _, err := tx.Exec(ctx, `
			INSERT INTO matches (ride_id, user_id, flight_id)
			VALUES ($1, $2, $3)`,
			rideID, string(m.UserID), m.FlightID,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// DeleteRide removes a ride whose members could not be attached.
func (s *Store) DeleteRide(ctx context.Context, rideID int64) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM rides WHERE ride_id = $1`, rideID,
	)
	return err
}

// MarkFlightsMatched flips the matched flag so a future cycle skips these flights.
func (s *Store) MarkFlightsMatched(ctx context.Context, flightIDs []int64) error {
	if len(flightIDs) == 0 {
		return nil
	}
	_, err := s.db.Exec(ctx, `
		UPDATE flights SET matched = TRUE
		WHERE flight_id = ANY($1)`, flightIDs,
	)
	return err
}
