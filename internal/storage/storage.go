package storage

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"dripsend/pkg/logx"
)

var (
	ErrDisabled   = errors.New("storage disabled")
	ErrOutOfRange = errors.New("storage: index out of range")
)

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free backend, one JSON array file per collection
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Store is the persisted collection API used by the library layer.
//
// Collections are ordered JSON document arrays. Load returns an empty slice
// when the collection is absent or unreadable; corruption is logged, never
// surfaced as a hard failure.
type Store interface {
	Load(ctx context.Context, collection string) ([]json.RawMessage, error)
	Save(ctx context.Context, collection string, docs []json.RawMessage) error
	DeleteAt(ctx context.Context, collection string, index int) error
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if storage is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}

// collectionKey restricts collection names to a filesystem- and SQL-safe
// alphabet.
func collectionKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
