// README: Dry-run CSV export tests.
package matching

import (
	"encoding/csv"
	"strings"
	"testing"
)

func TestWriteCSV(t *testing.T) {
	e := NewEngine(testCfg())

	a := cand(1, "09:00", "10:00", "T1", 1)
	no := int64(523)
	a.FlightNo = &no
	b := cand(2, "09:30", "10:30", "T1", 2)

	groups, _ := e.MatchBucket(Bucket{
		Key:        BucketKey{ToAirport: true, Airport: "LAX"},
		Candidates: []Candidate{a, b},
	})
	if len(groups) != 1 {
		t.Fatalf("fixture should match into one group, got %d", len(groups))
	}

	var buf strings.Builder
	if err := WriteCSV(&buf, groups); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(rows) != 3 { // header + one row per member
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	wantHeader := "ride_no,bucket_key,date,match_time,suggested_time_iso,terminal,user_id,flight_id,flight_no,airport,to_airport,bags_total,bags_no,bags_no_large,voucher"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Errorf("header = %q", got)
	}

	col := func(row []string, name string) string {
		for i, h := range rows[0] {
			if h == name {
				return row[i]
			}
		}
		t.Fatalf("no column %q", name)
		return ""
	}

	first := rows[1]
	if col(first, "ride_no") != "1" || col(first, "bucket_key") != "TO LAX" {
		t.Errorf("row = %v", first)
	}
	if col(first, "date") != "2026-03-02" || col(first, "match_time") != "09:45:00" {
		t.Errorf("row times = %v", first)
	}
	if col(first, "flight_no") != "523" || col(first, "terminal") != "T1" {
		t.Errorf("row ids = %v", first)
	}
	if col(first, "voucher") != "false" {
		t.Errorf("voucher = %q", col(first, "voucher"))
	}

	second := rows[2]
	if col(second, "flight_no") != "" { // absent flight number stays empty
		t.Errorf("flight_no = %q, want empty", col(second, "flight_no"))
	}
	if col(second, "bags_total") != "2" || col(second, "bags_no") != "2" || col(second, "bags_no_large") != "0" {
		t.Errorf("bags = %v", second)
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf strings.Builder
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected header only, got %d lines", len(lines))
	}
}
