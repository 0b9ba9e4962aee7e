package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"dripsend/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	mu sync.Mutex
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if s == nil || s.db == nil {
		return nil, ErrDisabled
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT doc FROM collections WHERE collection = ? ORDER BY idx`, collectionKey(collection))
	if err != nil {
		s.log.Warn("collection unreadable, treating as empty", logx.String("collection", collection), logx.Err(err))
		return []json.RawMessage{}, nil
	}
	defer rows.Close()

	docs := []json.RawMessage{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			s.log.Warn("collection row corrupt, skipping", logx.String("collection", collection), logx.Err(err))
			continue
		}
		docs = append(docs, json.RawMessage(doc))
	}
	if err := rows.Err(); err != nil {
		s.log.Warn("collection scan interrupted", logx.String("collection", collection), logx.Err(err))
	}
	return docs, nil
}

func (s *sqliteStore) Save(ctx context.Context, collection string, docs []json.RawMessage) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx, collection, docs)
}

func (s *sqliteStore) saveLocked(ctx context.Context, collection string, docs []json.RawMessage) error {
	key := collectionKey(collection)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE collection = ?`, key); err != nil {
		return err
	}
	for i, doc := range docs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO collections(collection, idx, doc) VALUES(?,?,?)`, key, i, string(doc)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) DeleteAt(ctx context.Context, collection string, index int) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	docs, err := s.Load(ctx, collection)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(docs) {
		return ErrOutOfRange
	}
	docs = append(docs[:index], docs[index+1:]...)
	return s.saveLocked(ctx, collection, docs)
}
