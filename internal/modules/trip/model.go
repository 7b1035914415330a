// README: Raw trip records as fetched from Postgres, before normalization.
package trip

import "pickup/internal/types"

// Record is one unmatched flight row joined with the rider's school.
// Optional columns stay pointers; the matching normalizer decides defaults.
type Record struct {
	UserID       types.ID
	FlightID     int64
	FlightNo     *int64
	Airport      string
	ToAirport    bool
	Date         string // YYYY-MM-DD, local
	EarliestTime string // HH:MM:SS, local
	LatestTime   string // HH:MM:SS, local
	Terminal     *string
	BagsSmall    *int
	BagsLarge    *int
	School       string
}

// Member is one (user, flight) row of a committed ride.
type Member struct {
	UserID   types.ID
	FlightID int64
}
