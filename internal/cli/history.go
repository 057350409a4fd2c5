package cli

import (
	"fmt"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/buckleypaul/espfleet/internal/log"
	"github.com/buckleypaul/espfleet/internal/provision"
	"github.com/buckleypaul/espfleet/internal/store"
)

const runIDLayout = "20060102T150405"

// historyObserver appends every device result to the history store.
type historyObserver struct {
	store       *store.Store
	runID       string
	opts        provision.Options
	firmwareDir string
	now         func() time.Time
	log         log.Logger
}

func (h *historyObserver) Observe(res provision.Result) {
	rec := store.ProvisionRecord{
		RunID:       h.runID,
		Device:      res.Device.String(),
		Timestamp:   h.now(),
		Outcome:     string(res.Outcome),
		Success:     res.Outcome.Succeeded(),
		Duration:    res.Duration.Round(time.Millisecond).String(),
		Baud:        h.opts.Baud,
		FirmwareDir: h.firmwareDir,
		EraseOnly:   h.opts.EraseOnly,
		SkipErase:   h.opts.SkipErase,
		Verify:      h.opts.Verify,
	}
	for _, ph := range res.Phases {
		rec.Phases = append(rec.Phases, store.PhaseRecord{
			Phase:    string(ph.Phase),
			Success:  ph.OK,
			Duration: ph.Duration.Round(time.Millisecond).String(),
		})
	}
	if res.Err != nil {
		rec.Error = res.Err.Error()
	}
	if err := h.store.AddProvision(rec); err != nil {
		h.log.Error(err, "could not record result", "device", rec.Device, "dir", h.store.Root())
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded per-device provisioning results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := a.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.HistoryDir == "" {
				return fmt.Errorf("no history directory configured")
			}
			records, err := store.New(cfg.HistoryDir).Provisions()
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if len(records) == 0 {
				fmt.Fprintln(a.out, "No provisioning history.")
				return nil
			}
			if limit > 0 && len(records) > limit {
				records = records[len(records)-limit:]
			}

			table := uitable.New()
			table.MaxColWidth = 50
			table.Wrap = true
			table.AddRow("TIME", "RUN", "DEVICE", "OUTCOME", "DURATION", "ERROR")
			// Newest first.
			for i := len(records) - 1; i >= 0; i-- {
				r := records[i]
				table.AddRow(r.Timestamp.Local().Format(time.DateTime), r.RunID, r.Device, r.Outcome, r.Duration, r.Error)
			}
			fmt.Fprintln(a.out, table)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Show at most this many records (0 for all)")
	return cmd
}
