package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dripsend/internal/dispatch"
	"dripsend/internal/library"
	"dripsend/internal/storage"
	"dripsend/pkg/logx"
)

type noopTransport struct{}

func (noopTransport) Open(context.Context, string, string) error { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newTestServerCfg(t, dispatch.Config{})
}

func newTestServerCfg(t *testing.T, cfg dispatch.Config) *Server {
	t.Helper()
	store, err := storage.Open(storage.Config{Driver: "file", Path: t.TempDir()}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	lib := library.New(store, logx.Nop())
	ctrl := dispatch.New(cfg, noopTransport{}, lib, logx.Nop())
	return New(Config{}, ctrl, lib, "+256", logx.Nop())
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	return m
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestImportRawPhones(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/contacts/import",
		`{"phones": ["0712345678", "0712345678", "+254700111222", "banana"]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	// banana has no digits so it never becomes a record
	if m["total"].(float64) != 3 {
		t.Errorf("total = %v", m["total"])
	}
	if m["duplicates"].(float64) != 1 {
		t.Errorf("duplicates = %v", m["duplicates"])
	}
	if m["valid"].(float64) != 2 {
		t.Errorf("valid = %v", m["valid"])
	}
}

func TestImportCSVAndSave(t *testing.T) {
	s := newTestServer(t)
	csv := "Phone Number,First Name\n0712345678,Alice\n,Bob\n"
	body, _ := json.Marshal(map[string]any{"data": csv, "save_as": "crew"})
	w := do(t, s, http.MethodPost, "/api/contacts/import", string(body))
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body = %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	if m["valid"].(float64) != 1 {
		t.Errorf("valid = %v", m["valid"])
	}
	if m["saved_as"] != "crew" {
		t.Errorf("saved_as = %v", m["saved_as"])
	}

	w = do(t, s, http.MethodGet, "/api/contact-lists/crew", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get list code = %d", w.Code)
	}
}

func TestImportRequiresInput(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/contacts/import", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestTemplateSaveAndPreview(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/templates",
		`{"name": "hello", "body": "Hi {first_name}, meet us at {location}"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("save code = %d body = %s", w.Code, w.Body.String())
	}

	w = do(t, s, http.MethodPost, "/api/templates/preview", `{
		"template": "hello",
		"contacts": [{"phone": "+256712345678", "first_name": "Alice"}],
		"sample": 1
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("preview code = %d body = %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	missing := m["missing"].([]any)
	if len(missing) != 1 || missing[0] != "location" {
		t.Errorf("missing = %v", missing)
	}
	msgs := m["messages"].([]any)
	if len(msgs) != 1 {
		t.Fatalf("messages = %v", msgs)
	}
	text := msgs[0].(map[string]any)["message"].(string)
	if !strings.Contains(text, "Hi Alice") || !strings.Contains(text, "{location}") {
		t.Errorf("rendered = %q", text)
	}
}

func TestCampaignStatusIdle(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodGet, "/api/campaign/status", "")
	m := decode(t, w)
	if m["state"] != "idle" {
		t.Errorf("state = %v", m["state"])
	}
}

func TestCampaignControlWithoutRun(t *testing.T) {
	s := newTestServer(t)
	if w := do(t, s, http.MethodPost, "/api/campaign/pause", ""); w.Code != http.StatusConflict {
		t.Errorf("pause code = %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/campaign/resume", ""); w.Code != http.StatusConflict {
		t.Errorf("resume code = %d", w.Code)
	}
	if w := do(t, s, http.MethodPost, "/api/campaign/start", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bare start code = %d", w.Code)
	}
}

func TestStartRejectsUnresolvableTemplate(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/campaign/start", `{
		"contacts": [{"phone": "+256712345678"}],
		"body": "Your code is {otp}"
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d body = %s", w.Code, w.Body.String())
	}
	m := decode(t, w)
	missing := m["missing"].([]any)
	if len(missing) != 1 || missing[0] != "otp" {
		t.Errorf("missing = %v", missing)
	}
}

func TestStartUnknownList(t *testing.T) {
	s := newTestServer(t)
	w := do(t, s, http.MethodPost, "/api/campaign/start",
		`{"contact_list": "nobody", "template": "nothing"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", w.Code)
	}
}

// Campaigns must outlive the request that started them: net/http cancels
// the request context as soon as the handler returns.
func TestStartedCampaignOutlivesRequestContext(t *testing.T) {
	s := newTestServerCfg(t, dispatch.Config{
		MessageDelayMin:  time.Millisecond,
		MessageDelayMax:  2 * time.Millisecond,
		CooldownEvery:    100,
		CooldownDelayMin: time.Millisecond,
		CooldownDelayMax: 2 * time.Millisecond,
		RatePerSec:       1000,
	})

	body := `{
		"contacts": [
			{"phone": "+256700000001", "first_name": "A"},
			{"phone": "+256700000002", "first_name": "B"},
			{"phone": "+256700000003", "first_name": "C"}
		],
		"body": "Hi {first_name}"
	}`
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/campaign/start", strings.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.srv.Handler.ServeHTTP(w, req)
	cancel() // what net/http does the moment the handler returns

	if w.Code != http.StatusOK {
		t.Fatalf("start code = %d body = %s", w.Code, w.Body.String())
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.ctrl.State() == dispatch.Completed {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if got := s.ctrl.State(); got != dispatch.Completed {
		t.Fatalf("state = %v, want Completed; progress = %+v", got, s.ctrl.Progress())
	}
	if p := s.ctrl.Progress(); p.Sent != 3 || p.Pending != 0 {
		t.Fatalf("progress = %+v", p)
	}
}
