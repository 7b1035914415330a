// README: Hard validity predicate and the two pluggable group-scoring policies.
package matching

import (
	"math"
	"time"

	"pickup/internal/config"
	"pickup/internal/modules/location"
)

// ScoreInvalid is the sentinel excluding a group from selection.
var ScoreInvalid = math.Inf(-1)

// Scorer assigns a comparable quality score to a trial group. With validate
// set, groups failing the hard predicate score ScoreInvalid; without it the
// raw score is returned for diagnostics.
type Scorer interface {
	Score(members []Candidate, validate bool) float64
}

// Rules carries the hard, non-negotiable group constraints.
type Rules struct {
	BagCapacity  int
	TerminalMode string
}

func NewRules(cfg config.MatchingConfig) Rules {
	return Rules{BagCapacity: cfg.BagCapacity, TerminalMode: cfg.TerminalMode}
}

// ValidGroup is the hard validity predicate: size 2-4, non-empty time
// intersection, bag capacity, and (strict mode) identical terminal values,
// with UNKNOWN counting as a value that must also match.
func (r Rules) ValidGroup(members []Candidate) bool {
	if len(members) < minGroupSize || len(members) > maxGroupSize {
		return false
	}
	start, end := intersection(members)
	if !start.Before(end) {
		return false
	}
	if totalBags(members) > r.BagCapacity {
		return false
	}
	if r.TerminalMode == config.TerminalStrict && !terminalsAgree(members) {
		return false
	}
	return true
}

// TimeScorer ranks groups by shared-window length, with a relaxed-mode
// terminal penalty and a small bag-utilization bonus.
type TimeScorer struct {
	Rules
}

func (s TimeScorer) Score(members []Candidate, validate bool) float64 {
	if validate && !s.ValidGroup(members) {
		return ScoreInvalid
	}
	start, end := intersection(members)
	if !start.Before(end) {
		return ScoreInvalid
	}
	minutes := int(end.Sub(start) / time.Minute)

	penalty := 0.0
	if s.TerminalMode == config.TerminalRelaxed && !terminalsAgree(members) {
		penalty = 0.5
	}

	fill := math.Min(float64(totalBags(members))/float64(s.BagCapacity), 1.0)

	return float64(minutes) - terminalPenaltyWeight*penalty + bagFillWeight*fill
}

// SpatialScorer blends the shared window with pickup-anchor cohesion on the
// H3 grid. neighbor is injected so the engine stays free of grid libraries.
type SpatialScorer struct {
	Rules
	WTime    float64
	WSpatial float64
	KRing    int
	Neighbor func(a, b string, k int) bool
}

func (s SpatialScorer) Score(members []Candidate, validate bool) float64 {
	if validate && !s.ValidGroup(members) {
		return ScoreInvalid
	}
	start, end := intersection(members)
	if !start.Before(end) {
		return ScoreInvalid
	}
	minutes := int(end.Sub(start) / time.Minute)

	cohesion := s.cohesion(members)

	bonus := 0.0
	if s.TerminalMode == config.TerminalStrict && !knownTerminalsAgree(members) {
		bonus = terminalBonusMismatch
	}

	return s.WTime*float64(minutes) + s.WSpatial*cohesion + bonus
}

// cohesion is the mean pairwise spatial score: 1.0 for the same cell, 0.6
// within KRing rings, 0.1 otherwise (including members without a cell).
func (s SpatialScorer) cohesion(members []Candidate) float64 {
	sum, pairs := 0.0, 0
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			a, b := members[i].Cell, members[j].Cell
			switch {
			case a != "" && a == b:
				sum += spatialSameCell
			case s.Neighbor != nil && s.Neighbor(a, b, s.KRing):
				sum += spatialNeighborCell
			default:
				sum += spatialFarCell
			}
			pairs++
		}
	}
	if pairs == 0 {
		return 0
	}
	return sum / float64(pairs)
}

// NewScorer builds the configured scoring policy.
func NewScorer(cfg config.MatchingConfig) Scorer {
	rules := NewRules(cfg)
	if cfg.ScoringPolicy == config.ScoringSpatial {
		return SpatialScorer{
			Rules:    rules,
			WTime:    cfg.WTime,
			WSpatial: cfg.WSpatial,
			KRing:    cfg.GridKRing,
			Neighbor: location.CellsWithinRing,
		}
	}
	return TimeScorer{Rules: rules}
}

// intersection returns the group's shared window [start, end); start may be
// at or after end when the windows do not overlap.
func intersection(members []Candidate) (time.Time, time.Time) {
	start, end := members[0].Earliest, members[0].Latest
	for _, m := range members[1:] {
		if m.Earliest.After(start) {
			start = m.Earliest
		}
		if m.Latest.Before(end) {
			end = m.Latest
		}
	}
	return start, end
}

func totalBags(members []Candidate) int {
	total := 0
	for _, m := range members {
		total += m.Bags()
	}
	return total
}

// terminalsAgree treats UNKNOWN as a concrete value: two unknowns agree,
// an unknown and a known terminal do not.
func terminalsAgree(members []Candidate) bool {
	for _, m := range members[1:] {
		if m.Terminal != members[0].Terminal {
			return false
		}
	}
	return true
}

// knownTerminalsAgree ignores UNKNOWN members and checks the rest.
func knownTerminalsAgree(members []Candidate) bool {
	first := ""
	for _, m := range members {
		if m.Terminal == TerminalUnknown {
			continue
		}
		if first == "" {
			first = m.Terminal
			continue
		}
		if m.Terminal != first {
			return false
		}
	}
	return true
}
