package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/buckleypaul/espfleet/internal/provision"
)

// Recorder collects per-run provisioning metrics in its own registry so
// they can be dumped for the node_exporter textfile collector.
type Recorder struct {
	registry *prometheus.Registry

	// DevicesTotal counts finished devices by outcome.
	DevicesTotal *prometheus.CounterVec

	// PhaseDuration tracks esptool run time per phase and status.
	PhaseDuration *prometheus.HistogramVec

	// LastRun is the unix time the last run finished.
	LastRun prometheus.Gauge
}

var _ provision.Observer = (*Recorder)(nil)

// NewRecorder registers the espfleet metrics on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		DevicesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "espfleet_devices_total",
				Help: "Devices processed, by outcome.",
			},
			[]string{"outcome"},
		),
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "espfleet_phase_duration_seconds",
				Help:    "Duration of esptool erase/flash/verify invocations.",
				Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
			},
			[]string{"phase", "status"},
		),
		LastRun: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "espfleet_last_run_timestamp_seconds",
				Help: "Unix time the last provisioning run finished.",
			},
		),
	}
	r.registry.MustRegister(r.DevicesTotal, r.PhaseDuration, r.LastRun)
	return r
}

// Observe implements provision.Observer.
func (r *Recorder) Observe(res provision.Result) {
	r.DevicesTotal.WithLabelValues(string(res.Outcome)).Inc()
	for _, ph := range res.Phases {
		status := "success"
		if !ph.OK {
			status = "failed"
		}
		r.PhaseDuration.WithLabelValues(string(ph.Phase), status).Observe(ph.Duration.Seconds())
	}
}

// RunFinished stamps the end of a run.
func (r *Recorder) RunFinished(t time.Time) {
	r.LastRun.Set(float64(t.Unix()))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile atomically writes all metrics to path in the text
// exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
