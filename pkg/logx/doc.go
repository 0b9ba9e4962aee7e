// Package logx provides structured logging for dripsend.
//
// It wraps zerolog behind a small Logger value type so call sites stay
// stable while sinks and levels can be swapped at runtime via the Service
// (used by config hot reload).
//
// Sinks: console (human-readable) and an optional append-only log file.
package logx
