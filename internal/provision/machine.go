package provision

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/buckleypaul/espfleet/internal/log"
)

// Device workflow states.
const (
	StateIdle      = "idle"
	StateErasing   = "erasing"
	StateFlashing  = "flashing"
	StateVerifying = "verifying"
	StateDone      = "done"
	StateFailed    = "failed"
)

// Workflow events.
const (
	EventErase  = "erase"
	EventFlash  = "flash"
	EventVerify = "verify"
	EventFinish = "finish"
	EventFail   = "fail"
)

// machine tracks one device through idle → erasing → flashing → verifying
// → done. failed is absorbing and reachable from every working state.
type machine struct {
	*fsm.FSM
}

func newMachine(logger log.Logger) *machine {
	m := &machine{}

	events := fsm.Events{
		{Name: EventErase, Src: []string{StateIdle}, Dst: StateErasing},
		{Name: EventFlash, Src: []string{StateIdle, StateErasing}, Dst: StateFlashing},
		{Name: EventVerify, Src: []string{StateFlashing}, Dst: StateVerifying},
		// idle → done only happens for --erase-only with --skip-erase
		{Name: EventFinish, Src: []string{StateIdle, StateErasing, StateFlashing, StateVerifying}, Dst: StateDone},
		{Name: EventFail, Src: []string{StateErasing, StateFlashing, StateVerifying}, Dst: StateFailed},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			logger.Debug("state changed", "event", e.Event, "from", e.Src, "to", e.Dst)
		},
	}

	m.FSM = fsm.NewFSM(StateIdle, events, callbacks)
	return m
}

// phase maps a working state to the esptool phase it represents.
func phaseOf(state string, next Phase) Phase {
	switch state {
	case StateErasing:
		return PhaseErase
	case StateFlashing:
		return PhaseFlash
	case StateVerifying:
		return PhaseVerify
	default:
		return next
	}
}
