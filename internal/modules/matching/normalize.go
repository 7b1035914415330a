// README: Normalizer: raw trip records to validated, optionally geo-enriched candidates.
package matching

import (
	"context"
	"strings"
	"time"

	"pickup/internal/config"
	"pickup/internal/modules/location"
	"pickup/internal/modules/trip"
)

// Normalizer canonicalizes raw records into Candidates. Each record yields
// either a candidate or a Skipped entry with a typed reason; nothing is
// thrown and no record can take down the batch.
type Normalizer struct {
	cfg      config.MatchingConfig
	resolver location.Resolver // nil disables spatial enrichment
	loc      *time.Location
}

func NewNormalizer(cfg config.MatchingConfig, resolver location.Resolver) *Normalizer {
	return &Normalizer{cfg: cfg, resolver: resolver, loc: cfg.Location()}
}

func (n *Normalizer) Normalize(ctx context.Context, records []trip.Record) ([]Candidate, []Skipped) {
	candidates := make([]Candidate, 0, len(records))
	var skipped []Skipped
	seen := make(map[int64]bool, len(records))

	for _, r := range records {
		if seen[r.FlightID] {
			skipped = append(skipped, Skipped{r.FlightID, &ValidationError{r.FlightID, "flight_id", "duplicate flight id"}})
			continue
		}
		c, err := n.build(ctx, r)
		if err != nil {
			skipped = append(skipped, Skipped{r.FlightID, err})
			continue
		}
		seen[r.FlightID] = true
		candidates = append(candidates, c)
	}
	return candidates, skipped
}

func (n *Normalizer) build(ctx context.Context, r trip.Record) (Candidate, error) {
	airport := NormalizeAirport(r.Airport)
	if airport == "" {
		return Candidate{}, &ValidationError{r.FlightID, "airport", "missing"}
	}

	earliest, err := n.parseLocal(r.Date, r.EarliestTime)
	if err != nil {
		return Candidate{}, &ValidationError{r.FlightID, "earliest_time", err.Error()}
	}
	latest, err := n.parseLocal(r.Date, r.LatestTime)
	if err != nil {
		return Candidate{}, &ValidationError{r.FlightID, "latest_time", err.Error()}
	}
	if earliest.After(latest) {
		return Candidate{}, &ValidationError{r.FlightID, "time_window", "earliest after latest"}
	}

	bagsSmall, err := bagCount(r.BagsSmall)
	if err != nil {
		return Candidate{}, &ValidationError{r.FlightID, "bag_no", err.Error()}
	}
	bagsLarge, err := bagCount(r.BagsLarge)
	if err != nil {
		return Candidate{}, &ValidationError{r.FlightID, "bag_no_large", err.Error()}
	}

	c := Candidate{
		UserID:    r.UserID,
		FlightID:  r.FlightID,
		FlightNo:  r.FlightNo,
		Airport:   airport,
		ToAirport: r.ToAirport,
		Terminal:  NormalizeTerminal(r.Terminal),
		School:    r.School,
		Earliest:  earliest,
		Latest:    latest,
		BagsSmall: bagsSmall,
		BagsLarge: bagsLarge,
	}

	if n.resolver != nil {
		if err := n.enrich(ctx, &c); err != nil {
			if n.cfg.ResolveRequired {
				return Candidate{}, err
			}
			// Unresolvable anchor: keep the candidate, score without
			// spatial cohesion.
		}
	}
	return c, nil
}

// enrich resolves the pickup anchor (school when heading to the airport,
// the airport itself otherwise) and discretizes it to an H3 cell.
func (n *Normalizer) enrich(ctx context.Context, c *Candidate) error {
	anchor := c.School
	if !c.ToAirport {
		anchor = c.Airport
	}
	p, ok, err := n.resolver.Resolve(ctx, anchor)
	if err != nil || !ok {
		return &ResolutionError{c.FlightID, anchor}
	}
	c.Anchor = p
	c.HasAnchor = true
	c.Cell = location.CellID(p, n.cfg.GridResolution)
	return nil
}

func (n *Normalizer) parseLocal(date, clock string) (time.Time, error) {
	if strings.TrimSpace(date) == "" || strings.TrimSpace(clock) == "" {
		return time.Time{}, &parseError{"missing"}
	}
	layout := "2006-01-02T15:04:05"
	if len(clock) == len("15:04") {
		layout = "2006-01-02T15:04"
	}
	t, err := time.ParseInLocation(layout, date+"T"+clock, n.loc)
	if err != nil {
		return time.Time{}, &parseError{err.Error()}
	}
	return t, nil
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return e.msg }

func bagCount(v *int) (int, error) {
	if v == nil {
		return 0, nil
	}
	if *v < 0 {
		return 0, &parseError{"negative count"}
	}
	return *v, nil
}

// NormalizeAirport trims and uppercases an airport code.
func NormalizeAirport(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeTerminal maps the free-form terminal field onto canonical values:
// "Terminal 4" and "4" become "T4", single letters pass through,
// international variants collapse to "INTL", everything else is
// trimmed/uppercased, and absent input becomes the UNKNOWN sentinel.
func NormalizeTerminal(raw *string) string {
	if raw == nil {
		return TerminalUnknown
	}
	term := strings.ToUpper(strings.TrimSpace(*raw))
	if term == "" {
		return TerminalUnknown
	}
	if rest, ok := strings.CutPrefix(term, "TERMINAL "); ok && isDigits(rest) {
		return "T" + rest
	}
	if isDigits(term) {
		return "T" + term
	}
	if len(term) == 1 && term[0] >= 'A' && term[0] <= 'Z' {
		return term
	}
	if strings.Contains(term, "INTL") || strings.Contains(term, "INTERNATIONAL") || strings.Contains(term, "TBIT") {
		return "INTL"
	}
	return term
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
