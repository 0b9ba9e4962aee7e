// Package library keeps the named persisted collections: contact lists,
// message templates, and dispatch reports.
//
// Saved entries are immutable snapshots; saving always appends, it never
// rewrites an existing entry in place. A disabled or failing store degrades
// to empty reads and logged write failures, never a hard error for readers.
package library

import (
	"context"
	"encoding/json"
	"time"

	"dripsend/internal/contacts"
	"dripsend/internal/dispatch"
	"dripsend/internal/storage"
	"dripsend/pkg/logx"
)

// Collection names in the store.
const (
	colContactLists = "contact_lists"
	colTemplates    = "templates"
	colReports      = "reports"
)

// Template is a stored message template.
type Template struct {
	Name    string    `json:"name"`
	Body    string    `json:"body"`
	SavedAt time.Time `json:"saved_at"`
}

type Service struct {
	store storage.Store // nil when storage is disabled
	log   logx.Logger
}

func New(store storage.Store, log logx.Logger) *Service {
	return &Service{store: store, log: log}
}

// ---- contact lists ----

func (s *Service) SaveContactList(ctx context.Context, list contacts.List) error {
	if list.SavedAt.IsZero() {
		list.SavedAt = time.Now()
	}
	return appendDoc(ctx, s, colContactLists, list)
}

func (s *Service) ContactLists(ctx context.Context) []contacts.List {
	return loadAll[contacts.List](ctx, s, colContactLists)
}

// ContactList returns the newest saved list with the given name.
func (s *Service) ContactList(ctx context.Context, name string) (contacts.List, bool) {
	lists := s.ContactLists(ctx)
	for i := len(lists) - 1; i >= 0; i-- {
		if lists[i].Name == name {
			return lists[i], true
		}
	}
	return contacts.List{}, false
}

func (s *Service) DeleteContactList(ctx context.Context, index int) error {
	return s.deleteAt(ctx, colContactLists, index)
}

// ---- templates ----

func (s *Service) SaveTemplate(ctx context.Context, t Template) error {
	if t.SavedAt.IsZero() {
		t.SavedAt = time.Now()
	}
	return appendDoc(ctx, s, colTemplates, t)
}

func (s *Service) Templates(ctx context.Context) []Template {
	return loadAll[Template](ctx, s, colTemplates)
}

// Template returns the newest saved template with the given name.
func (s *Service) Template(ctx context.Context, name string) (Template, bool) {
	all := s.Templates(ctx)
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Name == name {
			return all[i], true
		}
	}
	return Template{}, false
}

func (s *Service) DeleteTemplate(ctx context.Context, index int) error {
	return s.deleteAt(ctx, colTemplates, index)
}

// ---- reports ----

// SaveReport implements dispatch.ReportStore.
func (s *Service) SaveReport(ctx context.Context, r dispatch.Report) error {
	return appendDoc(ctx, s, colReports, r)
}

func (s *Service) Reports(ctx context.Context) []dispatch.Report {
	return loadAll[dispatch.Report](ctx, s, colReports)
}

func (s *Service) DeleteReport(ctx context.Context, index int) error {
	return s.deleteAt(ctx, colReports, index)
}

// ---- plumbing ----

func (s *Service) deleteAt(ctx context.Context, collection string, index int) error {
	if s.store == nil {
		return storage.ErrDisabled
	}
	return s.store.DeleteAt(ctx, collection, index)
}

func appendDoc[T any](ctx context.Context, s *Service, collection string, v T) error {
	if s.store == nil {
		return storage.ErrDisabled
	}
	docs, err := s.store.Load(ctx, collection)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, collection, append(docs, json.RawMessage(b)))
}

func loadAll[T any](ctx context.Context, s *Service, collection string) []T {
	out := []T{}
	if s.store == nil {
		return out
	}
	docs, err := s.store.Load(ctx, collection)
	if err != nil {
		s.log.Warn("collection load failed", logx.String("collection", collection), logx.Err(err))
		return out
	}
	for i, doc := range docs {
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			s.log.Warn("skipping undecodable entry", logx.String("collection", collection), logx.Int("index", i), logx.Err(err))
			continue
		}
		out = append(out, v)
	}
	return out
}
