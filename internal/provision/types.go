package provision

import (
	"errors"
	"fmt"
	"time"

	"github.com/buckleypaul/espfleet/internal/discovery"
)

const (
	DefaultBaudRate    = 115200
	DefaultSettleDelay = 5 * time.Second
)

// Options selects which phases run and how esptool talks to the device.
type Options struct {
	Baud      int
	EraseOnly bool
	SkipErase bool
	Verify    bool

	// SettleDelay is slept after a successful erase before flashing and
	// after a successful flash before verifying, while the chip reboots.
	SettleDelay time.Duration
}

// DefaultOptions returns a full erase + flash at 115200 baud.
func DefaultOptions() Options {
	return Options{
		Baud:        DefaultBaudRate,
		SettleDelay: DefaultSettleDelay,
	}
}

// Validate reports option values that cannot drive a run.
func (o Options) Validate() error {
	var errs []error
	if o.Baud <= 0 {
		errs = append(errs, fmt.Errorf("baud rate must be positive, got %d", o.Baud))
	}
	if o.SettleDelay < 0 {
		errs = append(errs, fmt.Errorf("settle delay must not be negative, got %s", o.SettleDelay))
	}
	return errors.Join(errs...)
}

// Phase is one esptool operation in the workflow.
type Phase string

const (
	PhaseErase  Phase = "erase"
	PhaseFlash  Phase = "flash"
	PhaseVerify Phase = "verify"
)

// Outcome is the final verdict for one device.
type Outcome string

const (
	OutcomeSucceeded    Outcome = "succeeded"
	OutcomeFailedErase  Outcome = "failed-at-erase"
	OutcomeFailedFlash  Outcome = "failed-at-flash"
	OutcomeFailedVerify Outcome = "failed-at-verify"
)

func (o Outcome) Succeeded() bool { return o == OutcomeSucceeded }

func failedAt(p Phase) Outcome {
	switch p {
	case PhaseErase:
		return OutcomeFailedErase
	case PhaseVerify:
		return OutcomeFailedVerify
	default:
		return OutcomeFailedFlash
	}
}

// PhaseResult records one esptool invocation.
type PhaseResult struct {
	Phase    Phase
	OK       bool
	Duration time.Duration
}

// Result is the outcome of provisioning one device.
type Result struct {
	Device   discovery.Device
	Outcome  Outcome
	State    string // final machine state, StateDone or StateFailed
	Phases   []PhaseResult
	Err      error
	Duration time.Duration
}

// Tally counts outcomes across a run. Succeeded + Failed == Total once
// every device has been processed.
type Tally struct {
	Succeeded int
	Failed    int
	Total     int
}

// Report is the result of a whole run.
type Report struct {
	Results  []Result
	Tally    Tally
	Started  time.Time
	Duration time.Duration
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	if res.Outcome.Succeeded() {
		r.Tally.Succeeded++
	} else {
		r.Tally.Failed++
	}
}

// PhaseError reports an esptool operation that returned failure.
type PhaseError struct {
	Device discovery.Device
	Phase  Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s failed on %s", e.Phase, e.Device)
}

// FaultError wraps a panic recovered while provisioning one device.
type FaultError struct {
	Device discovery.Device
	State  string
	Value  any
	Stack  []byte
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("unexpected fault on %s while %s: %v", e.Device, e.State, e.Value)
}

func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
