package dispatch

// logCap bounds the in-memory dispatch log; older entries are overwritten.
const logCap = 100

// logRing is a fixed-size ring of LogEntry. Not safe for concurrent use;
// the owning Service serializes access.
type logRing struct {
	entries [logCap]LogEntry
	next    int
	full    bool
}

func (r *logRing) append(e LogEntry) {
	r.entries[r.next] = e
	r.next++
	if r.next == logCap {
		r.next = 0
		r.full = true
	}
}

func (r *logRing) len() int {
	if r.full {
		return logCap
	}
	return r.next
}

// snapshot returns the buffered entries, newest first.
func (r *logRing) snapshot() []LogEntry {
	n := r.len()
	out := make([]LogEntry, 0, n)
	for i := 1; i <= n; i++ {
		idx := r.next - i
		if idx < 0 {
			idx += logCap
		}
		out = append(out, r.entries[idx])
	}
	return out
}

func (r *logRing) reset() {
	r.next = 0
	r.full = false
}
