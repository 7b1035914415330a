// README: Scoring tests: hard predicate, time policy formula, spatial cohesion.
package matching

import (
	"math"
	"testing"

	"pickup/internal/config"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestValidGroup(t *testing.T) {
	rules := NewRules(testCfg())

	a := cand(1, "09:00", "10:00", "T1", 1)
	b := cand(2, "09:30", "10:30", "T1", 2)

	if !rules.ValidGroup([]Candidate{a, b}) {
		t.Fatal("overlapping same-terminal pair should be valid")
	}
	if rules.ValidGroup([]Candidate{a}) {
		t.Error("singleton is never a group")
	}

	// Disjoint windows fail the intersection predicate.
	late := cand(3, "11:00", "12:00", "T1", 1)
	if rules.ValidGroup([]Candidate{a, late}) {
		t.Error("disjoint windows should be invalid")
	}

	// Touching windows (end == start) are empty intersections.
	touch := cand(4, "10:00", "11:00", "T1", 1)
	if rules.ValidGroup([]Candidate{a, touch}) {
		t.Error("zero-length intersection should be invalid")
	}

	// Bag capacity: 9 + 2 > 10.
	heavy1 := cand(5, "09:00", "10:00", "T1", 9)
	heavy2 := cand(6, "09:30", "10:30", "T1", 2)
	if rules.ValidGroup([]Candidate{heavy1, heavy2}) {
		t.Error("11 bags should exceed capacity 10")
	}

	// Strict terminals: T1 vs T2 invalid, T1 vs UNKNOWN invalid,
	// UNKNOWN vs UNKNOWN valid.
	t2 := cand(7, "09:30", "10:30", "T2", 1)
	if rules.ValidGroup([]Candidate{a, t2}) {
		t.Error("strict mode should reject T1/T2")
	}
	unk := cand(8, "09:30", "10:30", TerminalUnknown, 1)
	if rules.ValidGroup([]Candidate{a, unk}) {
		t.Error("strict mode should reject T1/UNKNOWN")
	}
	unk2 := cand(9, "09:00", "10:00", TerminalUnknown, 1)
	if !rules.ValidGroup([]Candidate{unk, unk2}) {
		t.Error("two UNKNOWNs agree in strict mode")
	}
}

func TestValidGroupRelaxedTerminals(t *testing.T) {
	cfg := testCfg()
	cfg.TerminalMode = config.TerminalRelaxed
	rules := NewRules(cfg)

	a := cand(1, "09:00", "10:00", "T1", 1)
	b := cand(2, "09:30", "10:30", "T2", 1)
	if !rules.ValidGroup([]Candidate{a, b}) {
		t.Fatal("relaxed mode should accept mismatched terminals")
	}
}

func TestTimeScorerFormula(t *testing.T) {
	s := TimeScorer{Rules: NewRules(testCfg())}

	// 30-minute intersection, 3 bags of 10: 30 + 0.5*0.3.
	a := cand(1, "09:00", "10:00", "T1", 1)
	b := cand(2, "09:30", "10:30", "T1", 2)
	if got, want := s.Score([]Candidate{a, b}, true), 30+0.5*0.3; !almostEqual(got, want) {
		t.Errorf("score = %v, want %v", got, want)
	}

	// Invalid pairs score the sentinel.
	t2 := cand(3, "09:30", "10:30", "T2", 1)
	if got := s.Score([]Candidate{a, t2}, true); got != ScoreInvalid {
		t.Errorf("strict mismatch score = %v, want -Inf", got)
	}
	heavy := cand(4, "09:30", "10:30", "T1", 10)
	if got := s.Score([]Candidate{a, heavy}, true); got != ScoreInvalid {
		t.Errorf("overweight score = %v, want -Inf", got)
	}
}

func TestTimeScorerRelaxedPenalty(t *testing.T) {
	cfg := testCfg()
	cfg.TerminalMode = config.TerminalRelaxed
	s := TimeScorer{Rules: NewRules(cfg)}

	a := cand(1, "09:00", "10:00", "T1", 1)
	b := cand(2, "09:30", "10:30", "T2", 2)
	// 30 minutes, penalty 0.5*1000, fill 0.3.
	if got, want := s.Score([]Candidate{a, b}, true), 30-500+0.5*0.3; !almostEqual(got, want) {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestSubMinuteOverlapIsValid(t *testing.T) {
	s := TimeScorer{Rules: NewRules(testCfg())}

	// 30-second intersection: valid, floors to 0 whole minutes.
	a := cand(1, "09:00:00", "09:30:30", "T1", 1)
	b := cand(2, "09:30:00", "10:00:00", "T1", 1)
	got := s.Score([]Candidate{a, b}, true)
	if got == ScoreInvalid {
		t.Fatal("sub-minute overlap should not be invalid")
	}
	if want := 0 + 0.5*0.2; !almostEqual(got, want) {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestSpatialScorerCohesion(t *testing.T) {
	cfg := testCfg()
	cfg.ScoringPolicy = config.ScoringSpatial
	neighbors := map[[2]string]bool{{"cell-a", "cell-b"}: true}
	s := SpatialScorer{
		Rules:    NewRules(cfg),
		WTime:    1.0,
		WSpatial: 10.0,
		KRing:    1,
		Neighbor: func(a, b string, _ int) bool { return neighbors[[2]string{a, b}] || neighbors[[2]string{b, a}] },
	}

	a := cand(1, "09:00", "10:00", "T1", 1)
	b := cand(2, "09:30", "10:30", "T1", 1)

	// Same cell: 30 + 10*1.0.
	a.Cell, b.Cell = "cell-a", "cell-a"
	if got, want := s.Score([]Candidate{a, b}, true), 30+10*spatialSameCell; !almostEqual(got, want) {
		t.Errorf("same cell score = %v, want %v", got, want)
	}

	// Neighboring cells: 30 + 10*0.6.
	b.Cell = "cell-b"
	if got, want := s.Score([]Candidate{a, b}, true), 30+10*spatialNeighborCell; !almostEqual(got, want) {
		t.Errorf("neighbor score = %v, want %v", got, want)
	}

	// Distant or missing cells: 30 + 10*0.1.
	b.Cell = "cell-z"
	if got, want := s.Score([]Candidate{a, b}, true), 30+10*spatialFarCell; !almostEqual(got, want) {
		t.Errorf("far score = %v, want %v", got, want)
	}
	b.Cell = ""
	if got, want := s.Score([]Candidate{a, b}, true), 30+10*spatialFarCell; !almostEqual(got, want) {
		t.Errorf("missing cell score = %v, want %v", got, want)
	}
}

func TestSpatialScorerTerminalBonus(t *testing.T) {
	cfg := testCfg()
	cfg.ScoringPolicy = config.ScoringSpatial
	s := SpatialScorer{Rules: NewRules(cfg), WTime: 1.0, WSpatial: 10.0}

	a := cand(1, "09:00", "10:00", "T1", 1)
	a.Cell = "cell-a"
	b := cand(2, "09:30", "10:30", "T2", 1)
	b.Cell = "cell-a"

	// Strict mode rejects the pair outright when validated.
	if got := s.Score([]Candidate{a, b}, true); got != ScoreInvalid {
		t.Fatalf("validated strict mismatch = %v, want -Inf", got)
	}
	// The raw diagnostic score carries the mismatch deduction.
	if got, want := s.Score([]Candidate{a, b}, false), 30+10*spatialSameCell+terminalBonusMismatch; !almostEqual(got, want) {
		t.Errorf("raw score = %v, want %v", got, want)
	}

	// UNKNOWN does not trigger the deduction among known terminals.
	b.Terminal = TerminalUnknown
	if got, want := s.Score([]Candidate{a, b}, false), 30+10*spatialSameCell; !almostEqual(got, want) {
		t.Errorf("unknown-terminal raw score = %v, want %v", got, want)
	}
}

func TestNewScorerSelectsPolicy(t *testing.T) {
	if _, ok := NewScorer(testCfg()).(TimeScorer); !ok {
		t.Error("default policy should be the time scorer")
	}
	cfg := testCfg()
	cfg.ScoringPolicy = config.ScoringSpatial
	if _, ok := NewScorer(cfg).(SpatialScorer); !ok {
		t.Error("spatial policy should build the spatial scorer")
	}
}
