// Package dispatch drives the drip-dispatch loop over a prepared batch of
// (contact, rendered message) pairs.
//
// One sequential worker attempts contacts in order. The transport is a
// single stateful surface, so attempts are never concurrent; pacing and the
// periodic cooldown only mean something against a strictly serial order.
//
// # Lifecycle
//
// Idle -> Running via Start (non-empty, equal-length batch). Running and
// Paused flip via Pause/Resume. Stop aborts remaining work from either and
// keeps progress, so a later Start resumes at index sent+failed. When every
// contact has been attempted the service reaches Completed, persists a
// Report, and goes quiet; Completed is terminal.
//
// Cancellation is cooperative: stop and pause are observed at every
// suspension point (inter-message wait, cooldown wait, pause gate), never
// mid-transport-call.
package dispatch
