package ids

import (
	"testing"
	"time"
)

func TestNewIsSortable(t *testing.T) {
	a := New()
	b := New()
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("unexpected id lengths: %q %q", a, b)
	}
	if a >= b {
		t.Fatalf("ids not monotonic: %q >= %q", a, b)
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	id := New()
	after := time.Now().Add(time.Second)

	ts := Timestamp(id)
	if ts.Before(before) || ts.After(after) {
		t.Fatalf("timestamp %v outside [%v, %v]", ts, before, after)
	}

	if !Timestamp("not-an-id").IsZero() {
		t.Fatal("malformed input should yield zero time")
	}
}
