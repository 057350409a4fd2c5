package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/buckleypaul/espfleet/internal/provision"
)

func TestObserveCountsOutcomes(t *testing.T) {
	r := NewRecorder()

	r.Observe(provision.Result{
		Device:  "/dev/ttyUSB0",
		Outcome: provision.OutcomeSucceeded,
		Phases: []provision.PhaseResult{
			{Phase: provision.PhaseErase, OK: true, Duration: 3 * time.Second},
			{Phase: provision.PhaseFlash, OK: true, Duration: 12 * time.Second},
		},
	})
	r.Observe(provision.Result{
		Device:  "/dev/ttyUSB1",
		Outcome: provision.OutcomeFailedFlash,
		Phases: []provision.PhaseResult{
			{Phase: provision.PhaseErase, OK: true, Duration: 3 * time.Second},
			{Phase: provision.PhaseFlash, OK: false, Duration: time.Second},
		},
	})

	if got := testutil.ToFloat64(r.DevicesTotal.WithLabelValues("succeeded")); got != 1 {
		t.Errorf("succeeded = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.DevicesTotal.WithLabelValues("failed-at-flash")); got != 1 {
		t.Errorf("failed-at-flash = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.PhaseDuration); got != 3 {
		t.Errorf("phase series = %d, want 3", got)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.Observe(provision.Result{Device: "COM3", Outcome: provision.OutcomeSucceeded})
	r.RunFinished(time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "espfleet.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	for _, want := range []string{
		`espfleet_devices_total{outcome="succeeded"} 1`,
		"espfleet_last_run_timestamp_seconds",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q:\n%s", want, out)
		}
	}
}
