package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json", `{
		"logging": {"level": "debug", "console": true},
		"contacts": {"default_country_code": "+256"},
		"dispatch": {"message_delay_min": "1s", "cooldown_every": 10},
		"transport": {"dry_run": true},
		"api": {"enabled": true, "addr": "127.0.0.1:9000"},
		"scheduler": {"enabled": false}
	}`)

	m := NewManager(path)
	cfg, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
	if cfg.Contacts.DefaultCountryCode != "+256" {
		t.Errorf("default cc = %q", cfg.Contacts.DefaultCountryCode)
	}
	if cfg.Dispatch.CooldownEvery != 10 {
		t.Errorf("cooldown_every = %d", cfg.Dispatch.CooldownEvery)
	}
	if got := m.Get(); got != cfg {
		t.Error("Get did not return committed config")
	}
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
logging:
  level: info
  console: true
contacts:
  default_country_code: "+254"
dispatch:
  message_delay_min: 2s
  message_delay_max: 4s
transport:
  dry_run: true
api:
  enabled: false
scheduler:
  enabled: true
  timezone: Africa/Kampala
  campaigns:
    - name: weekly
      spec: "0 9 * * 1"
      contact_list: customers
      template: reminder
`)

	cfg, err := NewManager(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Dispatch.MessageDelayMax != "4s" {
		t.Errorf("message_delay_max = %q", cfg.Dispatch.MessageDelayMax)
	}
	if len(cfg.Scheduler.Campaigns) != 1 || cfg.Scheduler.Campaigns[0].Spec != "0 9 * * 1" {
		t.Errorf("campaigns = %+v", cfg.Scheduler.Campaigns)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
logging:
  level: info
  verbosity: high
`)
	if _, err := NewManager(path).Load(); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	m := NewManager(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := m.Load(); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v", err)
	}
}

func TestDuration(t *testing.T) {
	t.Parallel()

	if d, err := Duration("x", ""); err != nil || d != 0 {
		t.Errorf("empty: d=%v err=%v", d, err)
	}
	if d, err := Duration("x", "1500ms"); err != nil || d != 1500*time.Millisecond {
		t.Errorf("1500ms: d=%v err=%v", d, err)
	}
	if _, err := Duration("x", "-5s"); err == nil {
		t.Error("negative accepted")
	}
	if _, err := Duration("x", "soon"); err == nil {
		t.Error("garbage accepted")
	}
	if d, err := DurationOr("x", "", 7*time.Second); err != nil || d != 7*time.Second {
		t.Errorf("default: d=%v err=%v", d, err)
	}
}
