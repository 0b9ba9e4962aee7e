package dispatch

import (
	"context"
	"errors"
	"runtime/debug"
	"sync"

	"golang.org/x/time/rate"

	"dripsend/internal/contacts"
	"dripsend/pkg/logx"
)

var (
	ErrBusy           = errors.New("dispatch: batch already running")
	ErrNoBatch        = errors.New("dispatch: no batch loaded")
	ErrEmptyBatch     = errors.New("dispatch: batch is empty")
	ErrLengthMismatch = errors.New("dispatch: contact and message counts differ")
	ErrNotRunning     = errors.New("dispatch: not running")
	ErrNotPaused      = errors.New("dispatch: not paused")
)

// Transport presents one rendered message on the external, per-phone
// conversation surface. nil means presented, never delivered.
type Transport interface {
	Open(ctx context.Context, phone, text string) error
}

// ReportStore persists completed batch reports.
type ReportStore interface {
	SaveReport(ctx context.Context, r Report) error
}

// Notifier is told when a batch finishes or is stopped.
type Notifier interface {
	BatchFinished(ctx context.Context, r Report)
}

// Service drives the drip dispatch loop: one sequential worker, jitter
// pacing between attempts, a periodic cooldown, and cooperative
// pause/resume/stop observed at every suspension point.
type Service struct {
	mu sync.Mutex // guards control flow and channels

	cfg       Config
	transport Transport
	reports   ReportStore
	notifier  Notifier
	log       logx.Logger

	// base bounds transport opens and limiter waits for every run. It is
	// the process lifecycle context, never a per-request one; request
	// contexts die with their handler and would kill the worker mid-batch.
	base context.Context

	limiter *rate.Limiter

	stopCh   chan struct{} // non-nil while a run is live; closed on stop
	resumeCh chan struct{} // non-nil while paused; closed on resume/stop
	draining bool          // a Load/Start is waiting out the previous worker
	runWG    sync.WaitGroup

	// statusMu guards everything readers see. The worker is the only
	// writer of counters; readers get point-in-time copies.
	statusMu sync.RWMutex
	state    State
	contacts []contacts.Record
	messages []string
	sent     int
	failed   int
	ring     logRing
}

func New(cfg Config, transport Transport, reports ReportStore, log logx.Logger) *Service {
	s := &Service{
		transport: transport,
		reports:   reports,
		log:       log,
		base:      context.Background(),
	}
	s.applyLocked(cfg)
	return s
}

// BindContext installs the lifecycle context used for transport opens and
// limiter waits. Called once at process wiring, before the first Start.
func (s *Service) BindContext(ctx context.Context) {
	s.mu.Lock()
	s.base = ctx
	s.mu.Unlock()
}

// SetNotifier installs an optional completion notifier.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

// Apply swaps pacing config at runtime. A running batch picks the new
// windows up on its next wait.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	s.cfg = cfg.withDefaults()
	s.limiter = rate.NewLimiter(rate.Limit(s.cfg.RatePerSec), s.cfg.RatePerSec)
}

// Load installs a new batch. Contact and message lists must be non-empty
// and of equal length; a batch cannot be replaced while Running or Paused.
// Loading resets progress and the dispatch log.
func (s *Service) Load(records []contacts.Record, messages []string) error {
	s.mu.Lock()
	s.statusMu.Lock()

	switch {
	case s.draining, s.state == Running, s.state == Paused:
		s.statusMu.Unlock()
		s.mu.Unlock()
		return ErrBusy
	}
	if len(records) == 0 {
		s.statusMu.Unlock()
		s.mu.Unlock()
		return ErrEmptyBatch
	}
	if len(records) != len(messages) {
		s.statusMu.Unlock()
		s.mu.Unlock()
		return ErrLengthMismatch
	}
	s.draining = true
	s.statusMu.Unlock()
	s.mu.Unlock()

	// a stopped worker may still be finishing an in-flight open against the
	// old batch; its counter updates must land before the reset
	s.runWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.draining = false

	s.contacts = append([]contacts.Record(nil), records...)
	s.messages = append([]string(nil), messages...)
	s.sent = 0
	s.failed = 0
	s.ring.reset()
	s.state = Idle
	return nil
}

// Start begins or resumes the loaded batch. After a stop it resumes from
// index sent+failed; already-attempted contacts are never re-attempted.
// Start on a Completed batch is a no-op.
func (s *Service) Start() error {
	s.mu.Lock()
	s.statusMu.Lock()

	switch {
	case s.state == Completed:
		s.statusMu.Unlock()
		s.mu.Unlock()
		return nil
	case s.draining, s.state == Running, s.state == Paused:
		s.statusMu.Unlock()
		s.mu.Unlock()
		return ErrBusy
	}
	if len(s.contacts) == 0 {
		s.statusMu.Unlock()
		s.mu.Unlock()
		return ErrNoBatch
	}
	s.draining = true
	s.statusMu.Unlock()
	s.mu.Unlock()

	// Stop returns while an in-flight open is still running. The transport
	// is a single stateful surface, so the old worker must be fully gone
	// before a new one may attempt anything.
	s.runWG.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	s.draining = false
	s.state = Running
	total := len(s.contacts)
	resumeAt := s.sent + s.failed
	s.statusMu.Unlock()

	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.resumeCh = nil
	ctx := s.base

	s.runWG.Add(1)
	go func() {
		defer s.runWG.Done()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in dispatch worker", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		s.run(ctx, stopCh)
	}()

	s.log.Info("dispatch started", logx.Int("total", total), logx.Int("resume_at", resumeAt))
	return nil
}

// Pause suspends the loop before its next attempt. An in-flight wait that
// already started keeps counting; the worker parks at the next suspension
// point until Resume or Stop.
func (s *Service) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	if s.state != Running {
		return ErrNotRunning
	}
	s.state = Paused
	s.resumeCh = make(chan struct{})
	s.log.Info("dispatch paused", logx.Int("attempted", s.sent+s.failed))
	return nil
}

// Resume wakes a paused loop.
func (s *Service) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	if s.state != Paused {
		return ErrNotPaused
	}
	close(s.resumeCh)
	s.resumeCh = nil
	s.state = Running
	s.log.Info("dispatch resumed", logx.Int("attempted", s.sent+s.failed))
	return nil
}

// Stop aborts remaining work. It interrupts the inter-message and cooldown
// waits immediately but never an in-flight transport call. Progress is
// kept; a later Start continues from the same index.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	switch s.state {
	case Running, Paused:
	default:
		return ErrNotRunning
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
	s.log.Info("dispatch stopped", logx.Int("attempted", s.sent+s.failed), logx.Int("total", len(s.contacts)))
	return nil
}

// Wait blocks until the worker goroutine has exited. Test and shutdown helper.
func (s *Service) Wait() {
	s.runWG.Wait()
}
