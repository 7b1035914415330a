// README: Matching engine: greedy pair selection, group expansion, and result assembly.
package matching

import (
	"sort"
	"sync"
	"time"

	"pickup/internal/config"
	"pickup/internal/modules/location"
)

// Engine runs the pure matching computation for one cycle. It performs no
// I/O and holds no mutable state, so one instance serves all buckets.
//
// Selection is a greedy approximate maximum-weight matching, not an exact
// (blossom-style) algorithm: buckets hold tens of candidates at most and
// the approximation is good enough at that scale. Expansion is likewise a
// local hill-climb from each seed pair and may miss a better same-size
// group reachable from a different seed.
type Engine struct {
	rules  Rules
	scorer Scorer
}

func NewEngine(cfg config.MatchingConfig) *Engine {
	return &Engine{rules: NewRules(cfg), scorer: NewScorer(cfg)}
}

// NewEngineWithScorer injects a custom scoring strategy.
func NewEngineWithScorer(cfg config.MatchingConfig, scorer Scorer) *Engine {
	return &Engine{rules: NewRules(cfg), scorer: scorer}
}

type scoredPair struct {
	i, j  int
	score float64
}

// MatchBucket matches one bucket: enumerate and score all pairs, greedily
// select a non-overlapping set by descending score (ties keep insertion
// order), then expand each selected pair toward four members. Candidates
// never used by any group come back as leftovers, unmodified.
func (e *Engine) MatchBucket(b Bucket) ([]Group, []Candidate) {
	riders := b.Candidates
	if len(riders) < minGroupSize {
		return nil, riders
	}

	pairs := e.scoredPairs(riders)
	if len(pairs) == 0 {
		return nil, riders
	}

	// Selection runs to completion before any expansion: every accepted
	// pair reserves its members first, so expansion can only draw riders
	// no accepted pair claimed.
	used := make([]bool, len(riders))
	var seeds [][2]int
	for _, p := range pairs {
		if used[p.i] || used[p.j] {
			continue
		}
		used[p.i], used[p.j] = true, true
		seeds = append(seeds, [2]int{p.i, p.j})
	}

	var groups []Group
	for _, s := range seeds {
		members := e.expand([]int{s[0], s[1]}, riders, used)
		groups = append(groups, assemble(members, b.Key))
	}

	var leftovers []Candidate
	for k, r := range riders {
		if !used[k] {
			leftovers = append(leftovers, r)
		}
	}
	return groups, leftovers
}

func (e *Engine) scoredPairs(riders []Candidate) []scoredPair {
	var pairs []scoredPair
	for i := 0; i < len(riders); i++ {
		for j := i + 1; j < len(riders); j++ {
			score := e.scorer.Score([]Candidate{riders[i], riders[j]}, true)
			if score > ScoreInvalid {
				pairs = append(pairs, scoredPair{i, j, score})
			}
		}
	}
	// Stable keeps equal-score pairs in enumeration order, which follows
	// bucket insertion order; selection stays deterministic.
	sort.SliceStable(pairs, func(a, b int) bool {
		return pairs[a].score > pairs[b].score
	})
	return pairs
}

// expand grows a seed pair one member at a time: every unused bucket
// candidate is trial-inserted, the highest validated score wins, and
// expansion stops at four members or when nothing validates. Chosen
// members are marked used globally so no candidate lands in two groups.
func (e *Engine) expand(seed []int, riders []Candidate, used []bool) []Candidate {
	group := seed
	for _, idx := range group {
		used[idx] = true
	}

	for len(group) < maxGroupSize {
		best := -1
		bestScore := ScoreInvalid
		for k := range riders {
			if used[k] {
				continue
			}
			trial := make([]Candidate, 0, len(group)+1)
			for _, idx := range group {
				trial = append(trial, riders[idx])
			}
			trial = append(trial, riders[k])
			// Invalid trials score -Inf and can never beat bestScore,
			// so only validated insertions are ever chosen; the first
			// best keeps ties on insertion order.
			if score := e.scorer.Score(trial, true); score > bestScore {
				bestScore = score
				best = k
			}
		}
		if best < 0 {
			break
		}
		used[best] = true
		group = append(group, best)
	}

	members := make([]Candidate, len(group))
	for i, idx := range group {
		members[i] = riders[idx]
	}
	return members
}

// assemble packages a finalized member set: intersection window, midpoint
// suggested time (whole seconds), consensus terminal, and the anchor-spread
// diagnostic.
func assemble(members []Candidate, key BucketKey) Group {
	start, end := intersection(members)
	mid := start.Add(end.Sub(start) / 2).Truncate(time.Second)

	terminal := members[0].Terminal
	for _, m := range members[1:] {
		if m.Terminal != terminal {
			terminal = ""
			break
		}
	}
	if terminal == TerminalUnknown {
		terminal = ""
	}

	return Group{
		Members:     members,
		BucketKey:   key.Label(),
		Start:       start,
		End:         end,
		SuggestedAt: mid,
		Terminal:    terminal,
		SpreadM:     anchorSpreadM(members),
	}
}

// anchorSpreadM is the widest pairwise anchor distance; 0 when fewer than
// two members carry coordinates.
func anchorSpreadM(members []Candidate) float64 {
	spread := 0.0
	for i := 0; i < len(members); i++ {
		if !members[i].HasAnchor {
			continue
		}
		for j := i + 1; j < len(members); j++ {
			if !members[j].HasAnchor {
				continue
			}
			if d := location.DistanceM(members[i].Anchor, members[j].Anchor); d > spread {
				spread = d
			}
		}
	}
	return spread
}

type bucketResult struct {
	groups    []Group
	leftovers []Candidate
}

// MatchAll matches every bucket. Buckets are disjoint and share no state,
// so each runs in its own goroutine; results are collected per bucket after
// it completes and aggregated in bucket order, keeping the output
// independent of scheduling. A panic inside one bucket degrades that bucket
// to all-leftover without touching the others.
func (e *Engine) MatchAll(buckets []Bucket) Result {
	results := make([]bucketResult, len(buckets))

	var wg sync.WaitGroup
	for i := range buckets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer func() {
				if recover() != nil {
					results[i] = bucketResult{leftovers: buckets[i].Candidates}
				}
			}()
			groups, leftovers := e.MatchBucket(buckets[i])
			results[i] = bucketResult{groups: groups, leftovers: leftovers}
		}(i)
	}
	wg.Wait()

	var out Result
	for _, r := range results {
		out.Groups = append(out.Groups, r.groups...)
		out.Leftovers = append(out.Leftovers, r.leftovers...)
	}
	return out
}
