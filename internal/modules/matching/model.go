// README: Matching candidates, buckets, groups, and the engine's error taxonomy.
package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"pickup/internal/types"
)

const (
	// minGroupSize and maxGroupSize bound every shared ride; a single
	// leftover rider is never promoted to a one-person group.
	minGroupSize = 2
	maxGroupSize = 4
	// TerminalUnknown is the sentinel for riders who did not report a
	// terminal. In strict mode it is a concrete value that must match.
	TerminalUnknown = "UNKNOWN"
	// terminalPenaltyWeight makes a relaxed-mode terminal mismatch dominate
	// any plausible overlap advantage without hard-failing the pair.
	terminalPenaltyWeight = 1000.0
	// bagFillWeight keeps the utilization bonus far below one overlap minute.
	bagFillWeight = 0.5
	// spatialSameCell/NeighborCell/FarCell are the pairwise cohesion levels.
	spatialSameCell     = 1.0
	spatialNeighborCell = 0.6
	spatialFarCell      = 0.1
	// terminalBonusMismatch is the spatial policy's strict-mode deduction.
	terminalBonusMismatch = -0.5
)

// Candidate is one normalized ride request. Immutable once built; the
// engine never mutates candidates and returns leftovers unmodified.
type Candidate struct {
	UserID    types.ID
	FlightID  int64
	FlightNo  *int64
	Airport   string
	ToAirport bool
	Terminal  string
	School    string
	Earliest  time.Time
	Latest    time.Time
	BagsSmall int
	BagsLarge int
	// Cell is the H3 hexagon of the pickup anchor; empty when spatial
	// enrichment was skipped or failed.
	Cell      string
	Anchor    types.Point
	HasAnchor bool
}

// Bags is the candidate's total luggage count.
func (c Candidate) Bags() int {
	return c.BagsSmall + c.BagsLarge
}

// BucketKey holds the hard partition attributes. TimeSlot and Cell are
// empty unless the corresponding bucketing refinement is enabled.
type BucketKey struct {
	ToAirport bool
	Airport   string
	TimeSlot  string
	Cell      string
}

// Label renders the key the way dry-run exports and audit logs show it.
func (k BucketKey) Label() string {
	dir := "FROM"
	if k.ToAirport {
		dir = "TO"
	}
	var b strings.Builder
	b.WriteString(dir)
	b.WriteString(" ")
	b.WriteString(k.Airport)
	if k.TimeSlot != "" {
		b.WriteString(" @")
		b.WriteString(k.TimeSlot)
	}
	if k.Cell != "" {
		b.WriteString(" #")
		b.WriteString(k.Cell)
	}
	return b.String()
}

// Bucket is an insertion-ordered slice of candidates sharing a key.
type Bucket struct {
	Key        BucketKey
	Candidates []Candidate
}

// Group is a finalized shared ride of 2-4 candidates from one bucket.
type Group struct {
	Members   []Candidate `json:"members"`
	BucketKey string      `json:"bucket_key"`
	// Start/End is the intersection window [start, end).
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// SuggestedAt is the window midpoint, whole seconds.
	SuggestedAt time.Time `json:"suggested_at"`
	// Terminal is the consensus terminal; empty when members disagree or
	// none reported one.
	Terminal string `json:"terminal,omitempty"`
	// SpreadM is the widest pairwise anchor distance in metres, 0 when
	// fewer than two members carry coordinates. Diagnostic only.
	SpreadM float64 `json:"spread_m,omitempty"`
	Voucher bool    `json:"voucher"`
}

// Result is the outcome of matching every bucket of one cycle.
type Result struct {
	Groups    []Group
	Leftovers []Candidate
}

// ValidationError marks a record the normalizer rejected before bucketing.
type ValidationError struct {
	FlightID int64
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("flight %d: invalid %s: %s", e.FlightID, e.Field, e.Reason)
}

// ResolutionError marks a candidate whose pickup anchor could not be geocoded.
type ResolutionError struct {
	FlightID int64
	Anchor   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("flight %d: no coordinates for %q", e.FlightID, e.Anchor)
}

// Skipped is the per-record outcome for records that did not become candidates.
type Skipped struct {
	FlightID int64
	Err      error
}

// SizeDistribution counts groups by member count.
func SizeDistribution(groups []Group) map[int]int {
	dist := make(map[int]int)
	for _, g := range groups {
		dist[len(g.Members)]++
	}
	return dist
}

func sortBuckets(buckets []Bucket) {
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Key.Label() < buckets[j].Key.Label()
	})
}
