// SPDX-License-Identifier: MPL-2.0

package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andonyns/Data-Management-Service/internal/step"
)

const namespace = "dmsbuild"

// Collectors holds the gauges describing one run.
type Collectors struct {
	registry     *prometheus.Registry
	stepDuration *prometheus.GaugeVec
	runDuration  *prometheus.GaugeVec
	runSuccess   *prometheus.GaugeVec
	runStarted   *prometheus.GaugeVec
	stepsTotal   *prometheus.GaugeVec
}

// NewCollectors registers the run gauges on a private registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time of each step of the last run.",
		}, []string{"command", "step", "status"}),
		runDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}, []string{"command"}),
		runSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_success",
			Help:      "1 if the last run succeeded, 0 otherwise.",
		}, []string{"command"}),
		runStarted: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_start_timestamp_seconds",
			Help:      "Unix time the last run started.",
		}, []string{"command"}),
		stepsTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_steps",
			Help:      "Number of steps of the last run by status.",
		}, []string{"command", "status"}),
	}
	c.registry.MustRegister(c.stepDuration, c.runDuration, c.runSuccess, c.runStarted, c.stepsTotal)
	return c
}

// Observe records result. Dry runs are recorded with status "would run".
func (c *Collectors) Observe(result step.RunResult) {
	cmd := result.Command
	for _, s := range result.Steps {
		c.stepDuration.WithLabelValues(cmd, s.Step.String(), s.Status.String()).Set(s.Duration.Seconds())
	}
	for _, st := range []step.Status{step.StatusSucceeded, step.StatusFailed, step.StatusSkipped, step.StatusWouldRun} {
		c.stepsTotal.WithLabelValues(cmd, st.String()).Set(float64(result.Count(st)))
	}
	c.runDuration.WithLabelValues(cmd).Set(result.Duration.Seconds())
	c.runStarted.WithLabelValues(cmd).Set(float64(result.Started.Unix()))
	success := 0.0
	if result.Succeeded() {
		success = 1
	}
	c.runSuccess.WithLabelValues(cmd).Set(success)
}

// Gatherer exposes the registry, e.g. for testutil comparisons.
func (c *Collectors) Gatherer() prometheus.Gatherer { return c.registry }

// WriteMetrics writes the metrics of result to path in the Prometheus text
// exposition format.
func WriteMetrics(path string, result step.RunResult) error {
	c := NewCollectors()
	c.Observe(result)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}
