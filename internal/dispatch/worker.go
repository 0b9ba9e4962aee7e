package dispatch

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"dripsend/pkg/logx"
)

// run is the single sequential dispatch worker. Exactly one run goroutine
// is live per Start; it is the only writer of counters and the ring log.
func (s *Service) run(ctx context.Context, stopCh <-chan struct{}) {
	// whatever makes the worker exit, the state must not stay Running with
	// no goroutine behind it
	defer s.settle()

	for {
		// fast-exit so stop wins over remaining work
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		default:
		}

		if !s.waitResume(ctx, stopCh) {
			return
		}

		idx, total, cfg := s.nextAttempt()
		if idx >= total {
			s.complete(ctx)
			return
		}

		attempted, success := s.attempt(ctx, idx)
		if !attempted {
			return
		}

		idx, total, _ = s.nextAttempt()
		if idx >= total {
			s.complete(ctx)
			return
		}

		// Cooldown after every Nth success, drawn from the wider window.
		if success && s.sentCount()%cfg.CooldownEvery == 0 {
			s.log.Debug("cooldown", logx.Int("sent", s.sentCount()), logx.Duration("min", cfg.CooldownDelayMin), logx.Duration("max", cfg.CooldownDelayMax))
			if !s.sleepJitter(ctx, stopCh, cfg.CooldownDelayMin, cfg.CooldownDelayMax) {
				return
			}
		}

		if !s.sleepJitter(ctx, stopCh, cfg.MessageDelayMin, cfg.MessageDelayMax) {
			return
		}
	}
}

// nextAttempt reports the resumability invariant: the next index is always
// sent+failed.
func (s *Service) nextAttempt() (idx, total int, cfg Config) {
	s.mu.Lock()
	cfg = s.cfg
	s.mu.Unlock()

	s.statusMu.RLock()
	idx = s.sent + s.failed
	total = len(s.contacts)
	s.statusMu.RUnlock()
	return idx, total, cfg
}

func (s *Service) sentCount() int {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.sent
}

// attempt presents one message. attempted is false only when the run was
// cancelled before the transport call; the contact stays pending and is
// re-attempted on the next Start.
func (s *Service) attempt(ctx context.Context, idx int) (attempted, success bool) {
	s.statusMu.RLock()
	phone := s.contacts[idx].Phone
	text := s.messages[idx]
	s.statusMu.RUnlock()

	s.mu.Lock()
	lim := s.limiter
	s.mu.Unlock()

	if lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return false, false
		}
	}

	s.appendLog(phone, StatusSending, "")
	err := s.transport.Open(ctx, phone, text)

	s.statusMu.Lock()
	if err != nil {
		s.failed++
		s.ring.append(LogEntry{Subject: phone, Status: StatusFailed, Detail: err.Error(), At: time.Now()})
	} else {
		s.sent++
		s.ring.append(LogEntry{Subject: phone, Status: StatusSent, At: time.Now()})
	}
	s.statusMu.Unlock()

	if err != nil {
		s.log.Warn("message failed", logx.String("phone", phone), logx.Err(err))
		return true, false
	}
	s.log.Debug("message presented", logx.String("phone", phone), logx.Int("index", idx))
	return true, true
}

// settle records Stopped when the worker exits while the state still says a
// run is live. Stop and complete leave their own terminal states; this
// covers context cancellation and panic exits, where no one else will.
func (s *Service) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	switch s.state {
	case Running, Paused:
	default:
		return
	}
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	if s.resumeCh != nil {
		close(s.resumeCh)
		s.resumeCh = nil
	}
	s.state = Stopped
	s.log.Warn("dispatch run interrupted", logx.Int("attempted", s.sent+s.failed), logx.Int("total", len(s.contacts)))
}

// waitResume parks while paused. Wakes on resume, stop, or ctx cancel.
func (s *Service) waitResume(ctx context.Context, stopCh <-chan struct{}) bool {
	s.mu.Lock()
	ch := s.resumeCh
	s.mu.Unlock()
	if ch == nil {
		return true
	}
	select {
	case <-ch:
		return true
	case <-stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

// sleepJitter waits a delay drawn uniformly from [min, max]. Returns false
// when the wait was interrupted by stop or ctx cancel.
func (s *Service) sleepJitter(ctx context.Context, stopCh <-chan struct{}, min, max time.Duration) bool {
	tmr := time.NewTimer(jitter(min, max))
	defer tmr.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stopCh:
		return false
	case <-tmr.C:
		return true
	}
}

func jitter(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

func (s *Service) appendLog(subject, status, detail string) {
	s.statusMu.Lock()
	s.ring.append(LogEntry{Subject: subject, Status: status, Detail: detail, At: time.Now()})
	s.statusMu.Unlock()
}

// complete transitions to Completed, persists the report, and notifies.
// Called only by the worker when every contact has been attempted.
func (s *Service) complete(ctx context.Context) {
	s.statusMu.Lock()
	if s.state == Stopped {
		// Stop raced the final attempt; the batch stays resumable.
		s.statusMu.Unlock()
		return
	}
	s.state = Completed
	summary := fmt.Sprintf("batch finished: %d sent, %d failed of %d", s.sent, s.failed, len(s.contacts))
	s.ring.append(LogEntry{Subject: SubjectSystem, Status: StatusInfo, Detail: summary, At: time.Now()})
	rep := s.reportLocked()
	s.statusMu.Unlock()

	s.mu.Lock()
	reports := s.reports
	notifier := s.notifier
	s.mu.Unlock()

	if reports != nil {
		if err := reports.SaveReport(ctx, rep); err != nil {
			s.log.Warn("report persist failed", logx.Err(err))
		}
	}
	if notifier != nil {
		notifier.BatchFinished(ctx, rep)
	}
	s.log.Info("dispatch completed", logx.Int("sent", rep.Totals.Sent), logx.Int("failed", rep.Totals.Failed), logx.Int("total", rep.Totals.Total))
}
