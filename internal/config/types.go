package config

// Config is the whole daemon configuration.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// Files may be JSON or YAML; YAML is coerced and both are decoded strictly
// so stale keys fail loudly on reload.
type Config struct {
	Logging   LoggingConfig   `json:"logging"`
	Storage   *StorageConfig  `json:"storage,omitempty"`
	Contacts  ContactsConfig  `json:"contacts"`
	Dispatch  DispatchConfig  `json:"dispatch"`
	Transport TransportConfig `json:"transport"`
	Notify    *NotifyConfig   `json:"notify,omitempty"`
	API       APIConfig       `json:"api"`
	Scheduler SchedulerConfig `json:"scheduler"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// StorageConfig controls the persisted collection store.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./dripsend_store" }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // sqlite only
}

type ContactsConfig struct {
	// DefaultCountryCode is prepended to local-format numbers ("+256").
	DefaultCountryCode string `json:"default_country_code"`
}

// DispatchConfig controls drip pacing.
//
// Defaults (when fields are omitted/zero):
//   - message_delay: 5s..15s
//   - cooldown_every: 20 successful sends
//   - cooldown_delay: 30s..60s
//   - rate_per_sec: 1
type DispatchConfig struct {
	MessageDelayMin  string `json:"message_delay_min,omitempty"`
	MessageDelayMax  string `json:"message_delay_max,omitempty"`
	CooldownEvery    int    `json:"cooldown_every,omitempty"`
	CooldownDelayMin string `json:"cooldown_delay_min,omitempty"`
	CooldownDelayMax string `json:"cooldown_delay_max,omitempty"`
	RatePerSec       int    `json:"rate_per_sec,omitempty"`
}

type TransportConfig struct {
	// Command overrides the OS URL opener.
	Command string `json:"command,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	// DryRun logs conversation URLs instead of opening them.
	DryRun bool `json:"dry_run,omitempty"`
}

// NotifyConfig controls operator notifications. If the section is omitted,
// notifications are disabled.
type NotifyConfig struct {
	Telegram TelegramNotify `json:"telegram"`
}

type TelegramNotify struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// APIConfig controls the HTTP control surface.
//
// Security note: prefer binding to localhost; the API has no auth of its own.
type APIConfig struct {
	Enabled      bool   `json:"enabled"`
	Addr         string `json:"addr,omitempty"` // default: "127.0.0.1:8080"
	ReadTimeout  string `json:"read_timeout,omitempty"`
	WriteTimeout string `json:"write_timeout,omitempty"`
	IdleTimeout  string `json:"idle_timeout,omitempty"`
}

// SchedulerConfig lists campaigns started on a cron spec.
type SchedulerConfig struct {
	Enabled   bool                `json:"enabled"`
	Timezone  string              `json:"timezone,omitempty"` // IANA TZ, e.g. "Africa/Kampala"
	Campaigns []ScheduledCampaign `json:"campaigns,omitempty"`
}

// ScheduledCampaign starts the named contact list + template pair on a
// standard 5-field cron spec.
type ScheduledCampaign struct {
	Name        string `json:"name"`
	Spec        string `json:"spec"`
	ContactList string `json:"contact_list"`
	Template    string `json:"template"`
}
