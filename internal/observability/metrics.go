package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SweepCollector bundles Prometheus metrics for nitrate-supply sweeps.
type SweepCollector struct {
	gatherer prometheus.Gatherer

	RunsTotal        *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	StepsTotal       prometheus.Counter
	SamplesTotal     prometheus.Counter
	FinalNitrate     *prometheus.GaugeVec
	FinalBiomass     *prometheus.GaugeVec
	LevelsInProgress prometheus.Gauge
}

// NewSweepCollector registers sweep metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewSweepCollector(reg prometheus.Registerer) (*SweepCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foodweb_sweep_runs_total",
		Help: "Completed sweep levels, labeled by outcome (ok or failed).",
	}, []string{"status"}), "foodweb_sweep_runs_total")
	if err != nil {
		return nil, err
	}

	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "foodweb_sweep_run_duration_seconds",
		Help:    "Wall-clock time to integrate one sweep level.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}), "foodweb_sweep_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodweb_integration_steps_total",
		Help: "Forward-Euler steps taken across all sweep levels.",
	}), "foodweb_integration_steps_total")
	if err != nil {
		return nil, err
	}

	samples, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foodweb_output_samples_total",
		Help: "Output samples recorded across all sweep levels.",
	}), "foodweb_output_samples_total")
	if err != nil {
		return nil, err
	}

	nitrate, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodweb_final_nitrate",
		Help: "Nitrate concentration at the end of a sweep level (µmol N l-1).",
	}, []string{"level"}), "foodweb_final_nitrate")
	if err != nil {
		return nil, err
	}

	biomass, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foodweb_final_biomass",
		Help: "Total biomass at the end of a sweep level (µmol N l-1).",
	}, []string{"level"}), "foodweb_final_biomass")
	if err != nil {
		return nil, err
	}

	inProgress, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foodweb_sweep_levels_in_progress",
		Help: "Sweep levels currently being integrated.",
	}), "foodweb_sweep_levels_in_progress")
	if err != nil {
		return nil, err
	}

	return &SweepCollector{
		gatherer:         gatherer,
		RunsTotal:        runs,
		RunDuration:      duration,
		StepsTotal:       steps,
		SamplesTotal:     samples,
		FinalNitrate:     nitrate,
		FinalBiomass:     biomass,
		LevelsInProgress: inProgress,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SweepCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SweepCollector) Handler() http.Handler {
	gatherer := c.Gatherer()
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// StartRun marks a level as in progress.
func (c *SweepCollector) StartRun(int) {
	if c == nil {
		return
	}
	c.LevelsInProgress.Inc()
}

// ObserveRun records the outcome of one sweep level.
func (c *SweepCollector) ObserveRun(_ int, elapsed time.Duration, steps, samples int, err error) {
	if c == nil {
		return
	}
	c.LevelsInProgress.Dec()
	status := "ok"
	if err != nil {
		status = "failed"
	}
	c.RunsTotal.WithLabelValues(status).Inc()
	c.RunDuration.Observe(elapsed.Seconds())
	c.StepsTotal.Add(float64(steps))
	c.SamplesTotal.Add(float64(samples))
}

// SetFinalState records the end-of-run nitrate and total biomass of a level.
func (c *SweepCollector) SetFinalState(level int, nitrate, totalBiomass float64) {
	if c == nil {
		return
	}
	label := strconv.Itoa(level)
	c.FinalNitrate.WithLabelValues(label).Set(nitrate)
	c.FinalBiomass.WithLabelValues(label).Set(totalBiomass)
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C, name string) (C, error) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
			var zero C
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero C
		return zero, err
	}
	return collector, nil
}
