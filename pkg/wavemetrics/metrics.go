// Package wavemetrics holds the Prometheus instrumentation the codec's
// orchestration layers (aggregator, upgrade handlers, combined codec)
// increment. The codec
// core's decoder/encoder/header container stay free of metrics entirely;
// only the stateful stages that make policy decisions (oversize, upgrade
// outcome, premature closure) report them, mirroring where the ambient
// logging hooks live too.
package wavemetrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// AggregatorOversizeTotal counts requests/responses rejected for
	// exceeding max-content-length, labeled by message kind.
	AggregatorOversizeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavecodec_aggregator_oversize_total",
			Help: "Messages rejected by the object aggregator for exceeding max-content-length.",
		},
		[]string{"kind"},
	)

	// AggregatorExpectationFailedTotal counts Expect: 100-continue
	// requests rejected with 417 because the declared length exceeded
	// the configured limit.
	AggregatorExpectationFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wavecodec_aggregator_expectation_failed_total",
			Help: "Requests rejected with 417 Expectation Failed.",
		},
	)

	// UpgradeOutcomeTotal counts upgrade handshake outcomes, labeled by
	// outcome (issued, successful, rejected).
	UpgradeOutcomeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wavecodec_upgrade_outcome_total",
			Help: "Protocol upgrade handshake outcomes.",
		},
		[]string{"outcome"},
	)

	// PrematureClosureTotal counts combined-client connections closed
	// with outbound requests still awaiting a response.
	PrematureClosureTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wavecodec_premature_closure_total",
			Help: "Connections closed with pipelined requests still awaiting a response.",
		},
	)

	// AggregatedMessageBytes observes the final buffered size of each
	// Full* message the aggregator emits.
	AggregatedMessageBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wavecodec_aggregated_message_bytes",
			Help:    "Size in bytes of each aggregated Full* message.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)
)

// registerer is the prometheus.Registerer metrics are added to; defaults
// to the global DefaultRegisterer, overridable with SetRegisterer before
// Register is called (e.g. in tests, to use a throwaway registry).
var registerer prometheus.Registerer = prometheus.DefaultRegisterer

// SetRegisterer overrides the registry Register uses.
func SetRegisterer(r prometheus.Registerer) { registerer = r }

var registered bool

// Register adds every metric to the configured registerer. It is
// idempotent; repeated calls after the first are no-ops. cmd/waveproxy
// calls this once at startup before serving traffic.
func Register() {
	if registered {
		return
	}
	registerer.MustRegister(
		AggregatorOversizeTotal,
		AggregatorExpectationFailedTotal,
		UpgradeOutcomeTotal,
		PrematureClosureTotal,
		AggregatedMessageBytes,
	)
	registered = true
}
