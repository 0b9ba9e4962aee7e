package dispatch

import (
	"time"
)

// State is the controller lifecycle state.
type State int

const (
	Idle State = iota
	Running
	Paused
	Stopped
	Completed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	case Completed:
		return "completed"
	default:
		return "unknown"
	}
}

// Config controls pacing. All windows are inclusive; a delay is drawn
// uniformly from [Min, Max].
type Config struct {
	// Inter-message wait between consecutive attempts.
	MessageDelayMin time.Duration
	MessageDelayMax time.Duration

	// CooldownEvery inserts one extra, wider delay after every Nth
	// successful send. Counted on successes, not attempts.
	CooldownEvery    int
	CooldownDelayMin time.Duration
	CooldownDelayMax time.Duration

	// RatePerSec caps transport opens as a hard backstop under the jitter
	// pacing. <= 0 falls back to the default.
	RatePerSec int
}

// Defaults chosen to look like a human working through a list.
const (
	defaultMessageDelayMin  = 5 * time.Second
	defaultMessageDelayMax  = 15 * time.Second
	defaultCooldownEvery    = 20
	defaultCooldownDelayMin = 30 * time.Second
	defaultCooldownDelayMax = 60 * time.Second
	defaultRatePerSec       = 1
)

func (c Config) withDefaults() Config {
	if c.MessageDelayMin <= 0 {
		c.MessageDelayMin = defaultMessageDelayMin
	}
	if c.MessageDelayMax < c.MessageDelayMin {
		c.MessageDelayMax = defaultMessageDelayMax
		if c.MessageDelayMax < c.MessageDelayMin {
			c.MessageDelayMax = c.MessageDelayMin
		}
	}
	if c.CooldownEvery <= 0 {
		c.CooldownEvery = defaultCooldownEvery
	}
	if c.CooldownDelayMin <= 0 {
		c.CooldownDelayMin = defaultCooldownDelayMin
	}
	if c.CooldownDelayMax < c.CooldownDelayMin {
		c.CooldownDelayMax = defaultCooldownDelayMax
		if c.CooldownDelayMax < c.CooldownDelayMin {
			c.CooldownDelayMax = c.CooldownDelayMin
		}
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = defaultRatePerSec
	}
	return c
}

// Progress is a point-in-time view of batch counters.
// Invariant: Sent + Failed + Pending == Total.
type Progress struct {
	Sent    int   `json:"sent"`
	Failed  int   `json:"failed"`
	Pending int   `json:"pending"`
	Total   int   `json:"total"`
	State   State `json:"-"`
}

// Log entry statuses.
const (
	StatusInfo    = "info"
	StatusSending = "sending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// SubjectSystem marks log entries about the batch itself rather than a
// single contact.
const SubjectSystem = "system"

// LogEntry is one line of the bounded dispatch log.
type LogEntry struct {
	Subject string    `json:"subject"`
	Status  string    `json:"status"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"timestamp"`
}

// Totals is the counter block embedded in a Report.
type Totals struct {
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Total   int `json:"total"`
}

// Report is the exportable outcome of a batch: counters plus the bounded
// log, newest entries first. Persisted on completion, exportable any time.
type Report struct {
	Timestamp time.Time  `json:"timestamp"`
	Totals    Totals     `json:"totals"`
	Log       []LogEntry `json:"log"`
}
