// README: Dry-run CSV export: one row per candidate per group.
package matching

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

var csvHeader = []string{
	"ride_no", "bucket_key", "date", "match_time", "suggested_time_iso",
	"terminal", "user_id", "flight_id", "flight_no", "airport", "to_airport",
	"bags_total", "bags_no", "bags_no_large", "voucher",
}

// WriteCSV writes the dry-run artifact. ride_no is a local 1-based group
// index; terminal and flight_no are empty when absent; voucher defaults to
// false until a voucher pipeline sets it.
func WriteCSV(w io.Writer, groups []Group) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for idx, g := range groups {
		for _, m := range g.Members {
			flightNo := ""
			if m.FlightNo != nil {
				flightNo = strconv.FormatInt(*m.FlightNo, 10)
			}
			row := []string{
				strconv.Itoa(idx + 1),
				g.BucketKey,
				g.SuggestedAt.Format("2006-01-02"),
				g.SuggestedAt.Format("15:04:05"),
				g.SuggestedAt.Format(time.RFC3339),
				g.Terminal,
				string(m.UserID),
				strconv.FormatInt(m.FlightID, 10),
				flightNo,
				m.Airport,
				strconv.FormatBool(m.ToAirport),
				strconv.Itoa(m.Bags()),
				strconv.Itoa(m.BagsSmall),
				strconv.Itoa(m.BagsLarge),
				strconv.FormatBool(g.Voucher),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
