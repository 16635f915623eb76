// Package metrics exposes Prometheus instrumentation for the control loop.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TicksTotal counts control loop ticks.
	TicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "timeprop_ticks_total",
			Help: "Total number of control ticks evaluated",
		},
	)

	// RelayState is the physical relay level per output (1 = energized).
	RelayState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeprop_relay_state",
			Help: "Current physical relay state per output",
		},
		[]string{"output"},
	)

	// RequestedPower is the last requested power per output, after clamping.
	RequestedPower = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeprop_requested_power",
			Help: "Last requested power fraction per output",
		},
		[]string{"output"},
	)

	// StaleInput is 1 while an output is running on its fallback power.
	StaleInput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "timeprop_stale_input",
			Help: "Whether the output's power input is stale",
		},
		[]string{"output"},
	)

	// CommandsTotal counts received power commands by result.
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeprop_commands_total",
			Help: "Total number of power commands received",
		},
		[]string{"result"}, // accepted | rejected
	)

	// TransitionsTotal counts relay transitions per output.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "timeprop_transitions_total",
			Help: "Total number of relay transitions per output",
		},
		[]string{"output", "to"}, // to: on | off
	)
)

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// ObserveOutput updates the per-output gauges after a tick.
func ObserveOutput(name string, physical bool, power float64, stale bool) {
	RelayState.WithLabelValues(name).Set(boolGauge(physical))
	RequestedPower.WithLabelValues(name).Set(power)
	StaleInput.WithLabelValues(name).Set(boolGauge(stale))
}
