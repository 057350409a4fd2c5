package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/buckleypaul/espfleet/internal/esptool"
	"github.com/buckleypaul/espfleet/internal/firmware"
	"github.com/buckleypaul/espfleet/internal/metrics"
	"github.com/buckleypaul/espfleet/internal/provision"
	"github.com/buckleypaul/espfleet/internal/store"
	"github.com/buckleypaul/espfleet/internal/ui"
)

var errNoDevices = errors.New("no devices found")

type provisionFlags struct {
	firmwareDir string
	eraseOnly   bool
	verify      bool
	skipErase   bool
	yes         bool
	noHistory   bool
}

func (a *app) runProvision(cmd *cobra.Command, f provisionFlags) error {
	cfg, logger, err := a.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	opts := provision.Options{
		Baud:        cfg.BaudRate,
		EraseOnly:   f.eraseOnly,
		SkipErase:   f.skipErase,
		Verify:      f.verify,
		SettleDelay: cfg.SettleDelay,
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	var set *firmware.Set
	if !f.eraseOnly {
		if f.firmwareDir == "" {
			return fmt.Errorf("%w: use --firmware-dir PATH, or --erase-only to only erase", firmware.ErrNoDirectory)
		}
		set, err = firmware.Load(f.firmwareDir)
		if err != nil {
			return err
		}
		printFirmware(a.out, set)
	}

	strategy, err := a.strategy()
	if err != nil {
		return err
	}
	devices, err := strategy.Discover()
	if err != nil {
		return fmt.Errorf("discover devices: %w", err)
	}
	logger.Debug("discovery finished", "strategy", strategy.Name(), "count", len(devices))
	if len(devices) == 0 {
		return errNoDevices
	}

	fmt.Fprintf(a.out, "Found %d ESP32 device(s):\n", len(devices))
	for i, d := range devices {
		fmt.Fprintf(a.out, "%d. %s\n", i+1, d)
	}

	if !f.yes {
		prompt := fmt.Sprintf("\nDo you want to %s all %d devices? (y/n): ", actionSummary(opts), len(devices))
		if !confirm(a.in, a.out, prompt) {
			fmt.Fprintln(a.out, "Operation cancelled by user.")
			return nil
		}
	}

	inst := esptool.Locate(cfg.Tool, cfg.Venv)
	logger.Info("using esptool", "path", inst.Path)

	recorder := metrics.NewRecorder()
	observers := []provision.Observer{recorder}
	if !f.noHistory && cfg.HistoryDir != "" {
		observers = append(observers, &historyObserver{
			store:       store.New(cfg.HistoryDir),
			runID:       a.now().Format(runIDLayout),
			opts:        opts,
			firmwareDir: f.firmwareDir,
			now:         a.now,
			log:         logger.WithName("history"),
		})
	}

	p, err := provision.New(set, opts, provision.Deps{
		Runner:    a.newRunner(inst, a.out, logger),
		Logger:    logger,
		Out:       a.out,
		Sleep:     a.sleep,
		Observers: observers,
	})
	if err != nil {
		return err
	}

	report := p.Run(cmd.Context(), devices)
	printReport(a.out, report)

	recorder.RunFinished(a.now())
	if cfg.MetricsFile != "" {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error(err, "could not write metrics", "path", cfg.MetricsFile)
		}
	}
	logger.Info("run finished",
		"succeeded", report.Tally.Succeeded,
		"failed", report.Tally.Failed,
		"total", report.Tally.Total,
		"duration", report.Duration.String())
	return nil
}

// actionSummary describes what a run will do, for the confirmation prompt.
func actionSummary(o provision.Options) string {
	var action string
	switch {
	case o.SkipErase && o.EraseOnly:
		action = "do nothing to"
	case o.SkipErase:
		action = "flash"
	case o.EraseOnly:
		action = "erase"
	default:
		action = "erase and flash"
	}
	if o.Verify && !o.EraseOnly {
		action += " and verify"
	}
	return action
}

// confirm reads one line and accepts only y or Y.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.TrimSpace(line)
	return answer == "y" || answer == "Y"
}

func printFirmware(w io.Writer, set *firmware.Set) {
	fmt.Fprintf(w, "Firmware directory: %s\n", set.Dir)
	for _, seg := range set.Segments {
		if seg.Name == firmware.ApplicationFile {
			fmt.Fprintf(w, "  %-15s %s  %d bytes (%.1f KB)\n", seg.Name, seg.OffsetHex(), seg.Size, float64(seg.Size)/1024)
			continue
		}
		fmt.Fprintf(w, "  %-15s %s  %d bytes\n", seg.Name, seg.OffsetHex(), seg.Size)
	}
}

func printReport(w io.Writer, r provision.Report) {
	fmt.Fprintln(w, ui.Title("Process complete."))

	if len(r.Results) > 0 {
		table := uitable.New()
		table.MaxColWidth = 60
		table.Wrap = true
		table.AddRow("DEVICE", "STATUS", "OUTCOME", "DURATION", "ERROR")
		for _, res := range r.Results {
			errText := ""
			if res.Err != nil {
				errText = res.Err.Error()
			}
			table.AddRow(res.Device, ui.StatusBadge(res.Outcome.Succeeded()), res.Outcome, res.Duration.Round(10*time.Millisecond), errText)
		}
		fmt.Fprintln(w, table)
	}

	fmt.Fprintf(w, "Succeeded: %d\n", r.Tally.Succeeded)
	fmt.Fprintf(w, "Failed:    %d\n", r.Tally.Failed)
	fmt.Fprintf(w, "Total:     %d\n", r.Tally.Total)
}

var _ provision.Runner = (*esptool.Tool)(nil)
