package dispatch

import (
	"time"
)

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.state
}

// Progress returns a point-in-time counter snapshot.
// Sent + Failed + Pending == Total holds for every snapshot.
func (s *Service) Progress() Progress {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.progressLocked()
}

func (s *Service) progressLocked() Progress {
	total := len(s.contacts)
	return Progress{
		Sent:    s.sent,
		Failed:  s.failed,
		Pending: total - s.sent - s.failed,
		Total:   total,
		State:   s.state,
	}
}

// Log returns the bounded dispatch log, newest entries first.
func (s *Service) Log() []LogEntry {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.ring.snapshot()
}

// Report builds an exportable report from the current counters and log.
// Available at any time, not just on completion.
func (s *Service) Report() Report {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.reportLocked()
}

func (s *Service) reportLocked() Report {
	p := s.progressLocked()
	return Report{
		Timestamp: time.Now(),
		Totals:    Totals{Sent: p.Sent, Failed: p.Failed, Pending: p.Pending, Total: p.Total},
		Log:       s.ring.snapshot(),
	}
}
