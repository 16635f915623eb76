package timeprop

import "testing"

func testBank(t *testing.T, n int) *Bank {
	t.Helper()
	cfgs := make([]Config, n)
	for i := range cfgs {
		cfgs[i] = Config{CycleTime: 10}
	}
	b, err := NewBank(cfgs, 0)
	if err != nil {
		t.Fatalf("NewBank: %v", err)
	}
	return b
}

func TestNewBankRejectsEmptyAndInvalid(t *testing.T) {
	if _, err := NewBank(nil, 0); err == nil {
		t.Error("expected error for zero outputs")
	}

	cfgs := []Config{
		{CycleTime: 10},
		{CycleTime: 10, DeadTime: 10},
	}
	_, err := NewBank(cfgs, 0)
	if err == nil {
		t.Fatal("expected error for invalid output config")
	}
}

func TestDispatchSetPowerBounds(t *testing.T) {
	b := testBank(t, 3)

	if !b.DispatchSetPower(0, 0.5, 0) {
		t.Error("index 0 should be accepted")
	}
	if !b.DispatchSetPower(2, 0.5, 0) {
		t.Error("index 2 should be accepted")
	}
	if b.DispatchSetPower(3, 0.5, 0) {
		t.Error("index 3 should be ignored")
	}
	if b.DispatchSetPower(-1, 0.5, 0) {
		t.Error("negative index should be ignored")
	}
}

func TestControllersAreIndependent(t *testing.T) {
	b := testBank(t, 3)
	b.DispatchSetPower(0, 1.0, 0)
	b.DispatchSetPower(2, 0.5, 0)

	states := b.TickAll(0)
	if len(states) != 3 {
		t.Fatalf("TickAll returned %d states, want 3", len(states))
	}
	if !states[0] {
		t.Error("output 0 at full power should be on")
	}
	if states[1] {
		t.Error("output 1 never commanded should stay off")
	}
	if !states[2] {
		t.Error("output 2 at half power should be on at cycle start")
	}

	// Output 2 turns off mid-cycle without disturbing its neighbors.
	states = b.TickAll(6)
	if !states[0] || states[1] || states[2] {
		t.Errorf("t=6: got %v, want [true false false]", states)
	}
}

func TestBankSnapshots(t *testing.T) {
	b := testBank(t, 2)
	b.DispatchSetPower(1, 0.3, 0)
	b.TickAll(0)

	snaps := b.Snapshots(0)
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}
	if snaps[0].Power != 0 {
		t.Errorf("output 0 power = %v, want 0", snaps[0].Power)
	}
	if snaps[1].Power != 0.3 {
		t.Errorf("output 1 power = %v, want 0.3", snaps[1].Power)
	}
	if !snaps[1].On {
		t.Error("output 1 should be on at cycle start")
	}
}
