// README: Matching service orchestrates cycles: fetch, normalize, match, commit.
package matching

import (
	"context"
	"time"

	"pickup/internal/audit"
	"pickup/internal/config"
	"pickup/internal/metrics"
	"pickup/internal/modules/location"
	"pickup/internal/modules/trip"
)

// TripSource supplies eligible unmatched trip records for a cycle.
type TripSource interface {
	FetchEligible(ctx context.Context, from, to time.Time) ([]trip.Record, error)
}

// RideSink persists finalized groups. Failures are per-group; the service
// never retries here.
type RideSink interface {
	CreateRide(ctx context.Context, rideDate string) (int64, error)
	AddMembers(ctx context.Context, rideID int64, members []trip.Member) error
	DeleteRide(ctx context.Context, rideID int64) error
	MarkFlightsMatched(ctx context.Context, flightIDs []int64) error
}

// CycleReport summarizes one matching cycle.
type CycleReport struct {
	Eligible         int         `json:"eligible"`
	Skipped          int         `json:"skipped"`
	RidesCreated     int         `json:"rides_created"`
	Unmatched        int         `json:"unmatched"`
	SizeDistribution map[int]int `json:"size_distribution"`
	Groups           []Group     `json:"groups"`
	DryRun           bool        `json:"dry_run"`
}

type Service struct {
	source  TripSource
	sink    RideSink
	norm    *Normalizer
	engine  *Engine
	audit   audit.Sink
	metrics *metrics.Metrics
	cfg     config.MatchingConfig
}

func NewService(
	source TripSource,
	sink RideSink,
	resolver location.Resolver,
	auditSink audit.Sink,
	m *metrics.Metrics,
	cfg config.MatchingConfig,
) *Service {
	return &Service{
		source:  source,
		sink:    sink,
		norm:    NewNormalizer(cfg, resolver),
		engine:  NewEngine(cfg),
		audit:   auditSink,
		metrics: m,
		cfg:     cfg,
	}
}

// RunCycle executes one full matching cycle. With dryRun set nothing is
// persisted; the report carries the groups a commit would have written.
func (s *Service) RunCycle(ctx context.Context, now time.Time, dryRun bool) (CycleReport, error) {
	started := time.Now()
	horizon := time.Duration(s.cfg.ReadHorizonMin) * time.Minute

	records, err := s.source.FetchEligible(ctx, now, now.Add(horizon))
	if err != nil {
		s.audit.Error("fetch_eligible", err)
		s.countError("fetch_eligible")
		return CycleReport{}, err
	}
	s.audit.CycleStart(len(records), s.cfg.ReadHorizonMin)

	candidates, skipped := s.norm.Normalize(ctx, records)
	for _, sk := range skipped {
		s.audit.Error("normalize", sk.Err)
	}

	buckets := MakeBuckets(candidates, s.cfg)
	result := s.engine.MatchAll(buckets)

	report := CycleReport{
		Eligible:         len(records),
		Skipped:          len(skipped),
		Unmatched:        len(result.Leftovers),
		SizeDistribution: SizeDistribution(result.Groups),
		Groups:           result.Groups,
		DryRun:           dryRun,
	}

	if dryRun {
		report.RidesCreated = len(result.Groups)
	} else {
		report.RidesCreated = s.commit(ctx, result.Groups)
	}

	s.audit.CycleEnd(len(result.Groups), report.RidesCreated)
	s.observe(report, time.Since(started))
	return report, nil
}

// commit persists groups one by one, continue-on-error: a failed ride is
// audited and the rest still land, so partial progress survives a bad row.
func (s *Service) commit(ctx context.Context, groups []Group) int {
	created := 0
	for _, g := range groups {
		rideDate := g.SuggestedAt.Format("2006-01-02")

		rideID, err := s.sink.CreateRide(ctx, rideDate)
		if err != nil {
			s.audit.Error("create_ride", err)
			s.countError("create_ride")
			continue
		}

		members := make([]trip.Member, len(g.Members))
		flightIDs := make([]int64, len(g.Members))
		for i, m := range g.Members {
			members[i] = trip.Member{UserID: m.UserID, FlightID: m.FlightID}
			flightIDs[i] = m.FlightID
		}

		if err := s.sink.AddMembers(ctx, rideID, members); err != nil {
			s.audit.Error("add_members", err)
			s.countError("add_members")
			// Drop the empty ride row; the flights stay unmatched and the
			// next cycle retries them.
			if derr := s.sink.DeleteRide(ctx, rideID); derr != nil {
				s.audit.Error("delete_ride", derr)
				s.countError("delete_ride")
			}
			continue
		}
		if err := s.sink.MarkFlightsMatched(ctx, flightIDs); err != nil {
			s.audit.Error("mark_matched", err)
			s.countError("mark_matched")
			continue
		}

		created++
		s.audit.RideCreated(rideID, len(g.Members), rideDate, g.Members[0].Airport)
	}
	return created
}

// RunScheduler runs cycles on a fixed tick until the context is cancelled.
func (s *Service) RunScheduler(ctx context.Context) {
	tick := time.Duration(s.cfg.TickSeconds) * time.Second
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.RunCycle(ctx, time.Now().In(s.cfg.Location()), false); err != nil {
				s.countError("cycle")
			}
		}
	}
}

func (s *Service) observe(r CycleReport, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	s.metrics.CyclesRun.Inc()
	s.metrics.RidesCreated.Add(float64(r.RidesCreated))
	s.metrics.CandidatesSkipped.Add(float64(r.Skipped))
	matched := 0
	for size, count := range r.SizeDistribution {
		matched += size * count
	}
	s.metrics.CandidatesMatched.Add(float64(matched))
	s.metrics.CycleDuration.Observe(elapsed.Seconds())
}

func (s *Service) countError(operation string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ErrorsCount.WithLabelValues(operation).Inc()
}
