package provision

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"time"

	"github.com/buckleypaul/espfleet/internal/discovery"
	"github.com/buckleypaul/espfleet/internal/esptool"
	"github.com/buckleypaul/espfleet/internal/firmware"
	"github.com/buckleypaul/espfleet/internal/log"
	"github.com/buckleypaul/espfleet/internal/ui"
)

// Runner executes one esptool invocation and reports whether it exited 0.
type Runner interface {
	Run(args ...string) bool
}

// Observer is told about every finished device.
type Observer interface {
	Observe(Result)
}

// Deps are the collaborators a Provisioner needs. Runner is required.
type Deps struct {
	Runner    Runner
	Logger    log.Logger
	Out       io.Writer           // human-readable progress
	Sleep     func(time.Duration) // settle delay; defaults to time.Sleep
	Observers []Observer
}

// ErrNoFirmware is returned when flashing is requested without a firmware set.
var ErrNoFirmware = errors.New("firmware set required unless erasing only")

// Provisioner runs erase → flash → verify on devices, one at a time.
type Provisioner struct {
	set       *firmware.Set
	opts      Options
	runner    Runner
	log       log.Logger
	out       io.Writer
	sleep     func(time.Duration)
	observers []Observer
}

// New validates opts and builds a Provisioner. set must already be loaded
// with firmware.Load; it may be nil only with EraseOnly.
func New(set *firmware.Set, opts Options, deps Deps) (*Provisioner, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if set == nil && !opts.EraseOnly {
		return nil, ErrNoFirmware
	}
	if deps.Runner == nil {
		return nil, errors.New("provision: nil runner")
	}

	p := &Provisioner{
		set:       set,
		opts:      opts,
		runner:    deps.Runner,
		log:       deps.Logger,
		out:       deps.Out,
		sleep:     deps.Sleep,
		observers: deps.Observers,
	}
	if p.log == nil {
		p.log = log.NewNopLogger()
	}
	p.log = p.log.WithName("provision")
	if p.out == nil {
		p.out = io.Discard
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}
	return p, nil
}

// Run provisions every device in order. A failure or fault on one device
// is recorded and the loop moves on.
func (p *Provisioner) Run(ctx context.Context, devices []discovery.Device) Report {
	report := Report{
		Started: time.Now(),
		Tally:   Tally{Total: len(devices)},
	}
	for _, device := range devices {
		res := p.Provision(ctx, device)
		report.add(res)
		for _, o := range p.observers {
			o.Observe(res)
		}
	}
	report.Duration = time.Since(report.Started)
	return report
}

// Provision runs the workflow for a single device. It never panics: a
// fault inside the workflow is returned as a failed Result carrying a
// *FaultError.
func (p *Provisioner) Provision(ctx context.Context, device discovery.Device) (res Result) {
	logger := p.log.WithValues("device", device.String())
	m := newMachine(logger)
	start := time.Now()
	res = Result{Device: device}

	defer func() {
		if r := recover(); r != nil {
			fault := &FaultError{Device: device, State: m.Current(), Value: r, Stack: debug.Stack()}
			logger.Error(fault, "unexpected fault, skipping device", "stack", string(fault.Stack))
			fmt.Fprintf(p.out, "%s error while processing %s: %v\n", ui.ErrorBadge("FAIL"), device, r)
			res.Outcome = failedAt(phaseOf(m.Current(), p.firstPhase()))
			res.Err = fault
			_ = m.Event(ctx, EventFail)
		}
		res.State = m.Current()
		res.Duration = time.Since(start)
	}()

	if err := p.workflow(ctx, m, device, &res); err != nil {
		logger.Error(err, "workflow error, skipping device", "state", m.Current())
		res.Outcome = failedAt(phaseOf(m.Current(), p.firstPhase()))
		res.Err = err
		_ = m.Event(ctx, EventFail)
	}
	return res
}

func (p *Provisioner) firstPhase() Phase {
	if p.opts.SkipErase {
		return PhaseFlash
	}
	return PhaseErase
}

// workflow drives the machine. It sets res.Outcome on every normal exit;
// a returned error means the machine rejected a transition.
func (p *Provisioner) workflow(ctx context.Context, m *machine, device discovery.Device, res *Result) error {
	port := device.String()

	if !p.opts.SkipErase {
		if err := m.Event(ctx, EventErase); err != nil {
			return err
		}
		if !p.runPhase(res, PhaseErase, ui.Banner("Erasing flash: "+port), esptool.EraseFlashArgs(port, p.opts.Baud)) {
			return p.fail(ctx, m, res, PhaseErase, "Failed to erase flash of %s", port)
		}
		fmt.Fprintln(p.out, ui.SuccessStyle.Render("Flash erased successfully."))

		if p.opts.EraseOnly {
			return p.finish(ctx, m, res)
		}
		p.settle()
	}

	if p.opts.EraseOnly {
		// --skip-erase with --erase-only leaves nothing to do.
		p.log.Debug("no phase selected, counting as succeeded", "device", port)
		return p.finish(ctx, m, res)
	}

	if err := m.Event(ctx, EventFlash); err != nil {
		return err
	}
	if !p.runPhase(res, PhaseFlash, ui.Banner("Flashing firmware: "+port), esptool.WriteFlashArgs(port, p.opts.Baud, p.set)) {
		return p.fail(ctx, m, res, PhaseFlash, "Firmware upload failed for %s", port)
	}
	fmt.Fprintln(p.out, ui.SuccessStyle.Render("Firmware upload complete for "+port+"."))

	if !p.opts.Verify {
		return p.finish(ctx, m, res)
	}
	p.settle()

	if err := m.Event(ctx, EventVerify); err != nil {
		return err
	}
	if !p.runPhase(res, PhaseVerify, ui.Banner("Verifying firmware: "+port), esptool.VerifyFlashArgs(port, p.opts.Baud, p.set)) {
		return p.fail(ctx, m, res, PhaseVerify, "Firmware verification failed for %s", port)
	}
	fmt.Fprintln(p.out, ui.SuccessStyle.Render("Firmware verified for "+port+"."))
	return p.finish(ctx, m, res)
}

func (p *Provisioner) runPhase(res *Result, phase Phase, banner string, args []string) bool {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, banner)

	start := time.Now()
	ok := p.runner.Run(args...)
	res.Phases = append(res.Phases, PhaseResult{Phase: phase, OK: ok, Duration: time.Since(start)})
	return ok
}

func (p *Provisioner) fail(ctx context.Context, m *machine, res *Result, phase Phase, format string, port string) error {
	fmt.Fprintln(p.out, ui.ErrorStyle.Render(fmt.Sprintf(format, port)))
	res.Outcome = failedAt(phase)
	res.Err = &PhaseError{Device: res.Device, Phase: phase}
	p.log.Warn("device failed", "device", port, "phase", string(phase))
	return m.Event(ctx, EventFail)
}

func (p *Provisioner) finish(ctx context.Context, m *machine, res *Result) error {
	res.Outcome = OutcomeSucceeded
	return m.Event(ctx, EventFinish)
}

func (p *Provisioner) settle() {
	if p.opts.SettleDelay <= 0 {
		return
	}
	fmt.Fprintln(p.out, ui.DimStyle.Render(fmt.Sprintf("Waiting %s for the device to reboot...", p.opts.SettleDelay)))
	p.sleep(p.opts.SettleDelay)
}
