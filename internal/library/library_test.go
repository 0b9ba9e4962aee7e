package library

import (
	"context"
	"testing"
	"time"

	"dripsend/internal/contacts"
	"dripsend/internal/dispatch"
	"dripsend/internal/storage"
	"dripsend/pkg/logx"
)

func testService(t *testing.T) *Service {
	t.Helper()
	st, err := storage.Open(storage.Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	return New(st, logx.Nop())
}

func TestContactListSnapshots(t *testing.T) {
	t.Parallel()
	s := testService(t)
	ctx := context.Background()

	list := contacts.List{Name: "launch", Contacts: []contacts.Record{{Phone: "+256700000001"}}}
	if err := s.SaveContactList(ctx, list); err != nil {
		t.Fatalf("SaveContactList: %v", err)
	}

	// Re-saving the same name appends a new snapshot, it does not replace.
	list.Contacts = append(list.Contacts, contacts.Record{Phone: "+256700000002"})
	if err := s.SaveContactList(ctx, list); err != nil {
		t.Fatalf("SaveContactList: %v", err)
	}

	all := s.ContactLists(ctx)
	if len(all) != 2 {
		t.Fatalf("lists = %d, want 2", len(all))
	}
	if all[0].SavedAt.IsZero() {
		t.Fatal("SavedAt not stamped")
	}

	got, ok := s.ContactList(ctx, "launch")
	if !ok {
		t.Fatal("named lookup failed")
	}
	if len(got.Contacts) != 2 {
		t.Fatalf("named lookup should return the newest snapshot, got %d contacts", len(got.Contacts))
	}

	if err := s.DeleteContactList(ctx, 0); err != nil {
		t.Fatalf("DeleteContactList: %v", err)
	}
	if got := s.ContactLists(ctx); len(got) != 1 {
		t.Fatalf("lists after delete = %d, want 1", len(got))
	}
}

func TestTemplates(t *testing.T) {
	t.Parallel()
	s := testService(t)
	ctx := context.Background()

	if err := s.SaveTemplate(ctx, Template{Name: "greeting", Body: "Hi {first_name}"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if err := s.SaveTemplate(ctx, Template{Name: "greeting", Body: "Hello {first_name}!"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	tmpl, ok := s.Template(ctx, "greeting")
	if !ok {
		t.Fatal("template lookup failed")
	}
	if tmpl.Body != "Hello {first_name}!" {
		t.Fatalf("lookup returned %q, want the newest snapshot", tmpl.Body)
	}
	if _, ok := s.Template(ctx, "missing"); ok {
		t.Fatal("lookup of missing template should fail")
	}
}

func TestReports(t *testing.T) {
	t.Parallel()
	s := testService(t)
	ctx := context.Background()

	rep := dispatch.Report{
		Timestamp: time.Now(),
		Totals:    dispatch.Totals{Sent: 2, Failed: 1, Total: 3},
		Log:       []dispatch.LogEntry{{Subject: "system", Status: dispatch.StatusInfo, Detail: "done"}},
	}
	if err := s.SaveReport(ctx, rep); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	got := s.Reports(ctx)
	if len(got) != 1 {
		t.Fatalf("reports = %d, want 1", len(got))
	}
	if got[0].Totals != rep.Totals {
		t.Fatalf("totals = %+v, want %+v", got[0].Totals, rep.Totals)
	}
	if len(got[0].Log) != 1 || got[0].Log[0].Status != dispatch.StatusInfo {
		t.Fatalf("log round-trip failed: %+v", got[0].Log)
	}
}

func TestDisabledStoreDegrades(t *testing.T) {
	t.Parallel()
	s := New(nil, logx.Nop())
	ctx := context.Background()

	if got := s.ContactLists(ctx); len(got) != 0 {
		t.Fatalf("expected empty lists, got %d", len(got))
	}
	if err := s.SaveTemplate(ctx, Template{Name: "x"}); err != storage.ErrDisabled {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}
