package dispatch

import (
	"strconv"
	"testing"
)

func TestLogRingBoundsAndOrder(t *testing.T) {
	t.Parallel()
	var r logRing
	for i := 0; i < 150; i++ {
		r.append(LogEntry{Subject: strconv.Itoa(i), Status: StatusInfo})
	}

	snap := r.snapshot()
	if len(snap) != logCap {
		t.Fatalf("snapshot length = %d, want %d", len(snap), logCap)
	}
	// Newest first: 149 down to 50.
	if snap[0].Subject != "149" {
		t.Fatalf("newest entry = %s, want 149", snap[0].Subject)
	}
	if snap[len(snap)-1].Subject != "50" {
		t.Fatalf("oldest retained entry = %s, want 50", snap[len(snap)-1].Subject)
	}
}

func TestLogRingPartial(t *testing.T) {
	t.Parallel()
	var r logRing
	r.append(LogEntry{Subject: "a"})
	r.append(LogEntry{Subject: "b"})

	snap := r.snapshot()
	if len(snap) != 2 || snap[0].Subject != "b" || snap[1].Subject != "a" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	r.reset()
	if len(r.snapshot()) != 0 {
		t.Fatal("reset ring should be empty")
	}
}
