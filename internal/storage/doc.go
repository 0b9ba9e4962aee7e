// Package storage provides the persisted collection store behind contact
// lists, templates, and dispatch reports.
//
// It currently supports:
//   - file: one JSON array file per collection (atomic replace on save)
//   - sqlite: a single database file
//
// Readers treat absent or corrupt collections as empty; the store never
// fails a load hard, it logs and degrades.
package storage
