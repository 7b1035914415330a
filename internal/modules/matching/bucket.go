// README: Bucketizer: one deterministic pass partitioning candidates by hard keys.
package matching

import (
	"fmt"

	"pickup/internal/config"
)

// MakeBuckets partitions candidates by direction + airport, optionally
// refined by earliest-time slot and/or H3 cell. Every candidate lands in
// exactly one bucket; none are scored or dropped here. Within a bucket the
// input order is preserved (downstream tie-breaking relies on it); across
// buckets the order is fixed by sorting labels.
func MakeBuckets(candidates []Candidate, cfg config.MatchingConfig) []Bucket {
	index := make(map[BucketKey]int)
	var buckets []Bucket

	for _, c := range candidates {
		key := BucketKey{ToAirport: c.ToAirport, Airport: c.Airport}
		if cfg.TimeSlotMin > 0 {
			key.TimeSlot = timeSlot(c, cfg.TimeSlotMin)
		}
		if cfg.BucketByCell {
			key.Cell = c.Cell
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, Bucket{Key: key})
		}
		buckets[i].Candidates = append(buckets[i].Candidates, c)
	}

	sortBuckets(buckets)
	return buckets
}

// timeSlot floors the earliest pickup time onto a slotMin-wide grid over
// the whole day, rendered as HH:MM in the reference timezone. Slots wider
// than an hour are fine: the grid runs on minutes since midnight.
func timeSlot(c Candidate, slotMin int) string {
	mins := c.Earliest.Hour()*60 + c.Earliest.Minute()
	slot := (mins / slotMin) * slotMin
	return fmt.Sprintf("%02d:%02d", slot/60, slot%60)
}
