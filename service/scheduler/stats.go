package scheduler

import (
	"time"

	"github.com/jobq-io/jobq/internal/clock"
)

// throughputWindow is the sliding window over which terminal events are
// counted for the events-per-minute figure.
const throughputWindow = time.Minute

// Statistics is a point-in-time summary of queue state.
type Statistics struct {
	Pending           int             `json:"pending"`
	Processing        int             `json:"processing"`
	Completed         int             `json:"completed"`
	Failed            int             `json:"failed"`
	Cancelled         int             `json:"cancelled"`
	PendingByPriority map[int]int     `json:"pendingByPriority"`
	AverageWait       time.Duration   `json:"averageWait"`
	AverageProcessing time.Duration   `json:"averageProcessing"`
	ThroughputPerMin  int             `json:"throughputPerMin"`
}

// stats accumulates running averages and the throughput window. Guarded by
// the owning service's mutex.
type stats struct {
	completed  int
	failed     int
	cancelled  int
	waitCount  int
	waitAvg    time.Duration
	procCount  int
	procAvg    time.Duration
	terminalAt []time.Time
}

// recordWait folds one admission-to-dispatch wait into the running average.
func (s *stats) recordWait(wait time.Duration) {
	s.waitCount++
	s.waitAvg += (wait - s.waitAvg) / time.Duration(s.waitCount)
}

// recordProcessing folds one dispatch duration into the running average.
func (s *stats) recordProcessing(elapsed time.Duration) {
	s.procCount++
	s.procAvg += (elapsed - s.procAvg) / time.Duration(s.procCount)
}

// recordTerminal notes a terminal transition for throughput accounting.
func (s *stats) recordTerminal() {
	now := clock.Now()
	s.terminalAt = append(s.terminalAt, now)
	s.prune(now)
}

// prune drops window events older than the throughput window.
func (s *stats) prune(now time.Time) {
	cutoff := now.Add(-throughputWindow)
	i := 0
	for ; i < len(s.terminalAt); i++ {
		if s.terminalAt[i].After(cutoff) {
			break
		}
	}
	if i > 0 {
		s.terminalAt = append(s.terminalAt[:0], s.terminalAt[i:]...)
	}
}

// throughput returns terminal events within the sliding window.
func (s *stats) throughput() int {
	s.prune(clock.Now())
	return len(s.terminalAt)
}
