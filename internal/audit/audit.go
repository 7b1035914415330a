// README: Audit sink for matching cycle events; best-effort, never blocks matching.
package audit

import "pickup/internal/logger"

// Sink records cycle lifecycle and per-ride events.
type Sink interface {
	CycleStart(eligible int, horizonMin int)
	CycleEnd(groups, ridesCreated int)
	RideCreated(rideID int64, members int, rideDate, airport string)
	Error(operation string, err error)
}

// LogSink implements Sink on top of the structured logger.
type LogSink struct {
	log logger.Logger
}

func NewLogSink(log logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) CycleStart(eligible int, horizonMin int) {
	s.log.Info("matching cycle start", "eligible", eligible, "read_horizon_min", horizonMin)
}

func (s *LogSink) CycleEnd(groups, ridesCreated int) {
	s.log.Info("matching cycle end", "groups", groups, "rides_created", ridesCreated)
}

func (s *LogSink) RideCreated(rideID int64, members int, rideDate, airport string) {
	s.log.Info("ride created", "ride_id", rideID, "members", members, "ride_date", rideDate, "airport", airport)
}

func (s *LogSink) Error(operation string, err error) {
	s.log.Error("matching error", "operation", operation, "error", err)
}
