package provision

import (
	"context"
	"testing"

	"github.com/buckleypaul/espfleet/internal/log"
)

func TestMachineHappyPath(t *testing.T) {
	ctx := context.Background()
	m := newMachine(log.NewNopLogger())

	for _, ev := range []string{EventErase, EventFlash, EventVerify, EventFinish} {
		if err := m.Event(ctx, ev); err != nil {
			t.Fatalf("event %s from %s: %v", ev, m.Current(), err)
		}
	}
	if m.Current() != StateDone {
		t.Fatalf("state = %s, want %s", m.Current(), StateDone)
	}
}

func TestMachineRejectsSkippedTransitions(t *testing.T) {
	ctx := context.Background()

	m := newMachine(log.NewNopLogger())
	if err := m.Event(ctx, EventVerify); err == nil {
		t.Fatal("verify from idle should be rejected")
	}
	if err := m.Event(ctx, EventFail); err == nil {
		t.Fatal("fail from idle should be rejected")
	}
	if m.Current() != StateIdle {
		t.Fatalf("state = %s, want idle", m.Current())
	}
}

func TestMachineFailedIsAbsorbing(t *testing.T) {
	ctx := context.Background()
	m := newMachine(log.NewNopLogger())

	if err := m.Event(ctx, EventErase); err != nil {
		t.Fatal(err)
	}
	if err := m.Event(ctx, EventFail); err != nil {
		t.Fatal(err)
	}
	for _, ev := range []string{EventErase, EventFlash, EventVerify, EventFinish, EventFail} {
		if err := m.Event(ctx, ev); err == nil {
			t.Errorf("event %s should be rejected from failed", ev)
		}
	}
	if m.Current() != StateFailed {
		t.Fatalf("state = %s, want failed", m.Current())
	}
}

func TestPhaseOf(t *testing.T) {
	cases := map[string]Phase{
		StateErasing:   PhaseErase,
		StateFlashing:  PhaseFlash,
		StateVerifying: PhaseVerify,
		StateIdle:      PhaseFlash,
	}
	for state, want := range cases {
		if got := phaseOf(state, PhaseFlash); got != want {
			t.Errorf("phaseOf(%s) = %s, want %s", state, got, want)
		}
	}
}
