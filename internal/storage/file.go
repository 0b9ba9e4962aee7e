package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dripsend/pkg/logx"
)

// fileStore keeps each collection in its own JSON array file under a
// directory. Writes go through a temp file + rename so a crash mid-write
// never corrupts the previous snapshot.
type fileStore struct {
	log logx.Logger
	dir string

	mu sync.Mutex
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	dir := strings.TrimSpace(cfg.Path)
	if dir == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &fileStore{log: log, dir: dir}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) path(collection string) string {
	return filepath.Join(s.dir, collectionKey(collection)+".json")
}

func (s *fileStore) Load(ctx context.Context, collection string) ([]json.RawMessage, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(collection), nil
}

func (s *fileStore) loadLocked(collection string) []json.RawMessage {
	b, err := os.ReadFile(s.path(collection))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("collection unreadable, treating as empty", logx.String("collection", collection), logx.Err(err))
		}
		return []json.RawMessage{}
	}
	var docs []json.RawMessage
	if err := json.Unmarshal(b, &docs); err != nil {
		s.log.Warn("collection corrupt, treating as empty", logx.String("collection", collection), logx.Err(err))
		return []json.RawMessage{}
	}
	return docs
}

func (s *fileStore) Save(ctx context.Context, collection string, docs []json.RawMessage) error {
	_ = ctx
	if docs == nil {
		docs = []json.RawMessage{}
	}
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(collection, b)
}

func (s *fileStore) writeLocked(collection string, b []byte) error {
	path := s.path(collection)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *fileStore) DeleteAt(ctx context.Context, collection string, index int) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	docs := s.loadLocked(collection)
	if index < 0 || index >= len(docs) {
		return ErrOutOfRange
	}
	docs = append(docs[:index], docs[index+1:]...)

	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return err
	}
	return s.writeLocked(collection, b)
}
