package gpio

import (
	"errors"
	"testing"
)

func TestFakeDriverRecordsHistory(t *testing.T) {
	f := NewFakeDriver(2)

	if err := f.Apply([]bool{true, false}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := f.Apply([]bool{false, false}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if len(f.History) != 2 {
		t.Fatalf("got %d history entries, want 2", len(f.History))
	}
	if !f.History[0][0] || f.History[0][1] {
		t.Errorf("first apply recorded as %v, want [true false]", f.History[0])
	}
	last := f.Last()
	if last[0] || last[1] {
		t.Errorf("Last() = %v, want [false false]", last)
	}
}

func TestFakeDriverCopiesStates(t *testing.T) {
	f := NewFakeDriver(1)
	states := []bool{true}
	if err := f.Apply(states); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	states[0] = false
	if !f.History[0][0] {
		t.Error("recorded state aliases the caller's slice")
	}
}

func TestFakeDriverLengthMismatch(t *testing.T) {
	f := NewFakeDriver(2)
	if err := f.Apply([]bool{true}); err == nil {
		t.Error("expected error for wrong state count")
	}
}

func TestFakeDriverApplyError(t *testing.T) {
	f := NewFakeDriver(1)
	f.ApplyError = errors.New("boom")
	if err := f.Apply([]bool{true}); err == nil {
		t.Error("expected configured error")
	}
	if len(f.History) != 0 {
		t.Error("failed apply should not be recorded")
	}
}

func TestFakeDriverClose(t *testing.T) {
	f := NewFakeDriver(1)
	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !f.Closed {
		t.Error("Closed not set")
	}

	f.Reset()
	if f.Closed || f.Last() != nil {
		t.Error("Reset did not clear state")
	}
}
