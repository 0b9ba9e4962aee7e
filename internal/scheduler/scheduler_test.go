package scheduler

import (
	"context"
	"sync"
	"testing"

	"dripsend/pkg/logx"
)

type recordingStarter struct {
	mu    sync.Mutex
	calls [][2]string
}

func (r *recordingStarter) StartNamed(_ context.Context, list, tmpl string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, [2]string{list, tmpl})
	return nil
}

func TestStartRejectsBadSpec(t *testing.T) {
	t.Parallel()

	s := New(Config{
		Enabled:   true,
		Campaigns: []Campaign{{Name: "bad", Spec: "not a spec", ContactList: "a", Template: "b"}},
	}, &recordingStarter{}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestStartRejectsBadTimezone(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: true, Timezone: "Mars/Olympus"}, &recordingStarter{}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestDisabledStartIsNoop(t *testing.T) {
	t.Parallel()

	s := New(Config{Enabled: false}, &recordingStarter{}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}

func TestFireInvokesStarter(t *testing.T) {
	t.Parallel()

	rec := &recordingStarter{}
	s := New(Config{Enabled: true}, rec, logx.Nop())
	s.ctx = context.Background()
	s.fire(Campaign{Name: "weekly", ContactList: "customers", Template: "reminder"})

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.calls) != 1 || rec.calls[0] != [2]string{"customers", "reminder"} {
		t.Fatalf("calls = %v", rec.calls)
	}
}
