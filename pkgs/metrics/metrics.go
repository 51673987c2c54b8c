// Package metrics exposes the engine's Prometheus metrics.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	// EpochsComputed counts payout computations by cache.
	EpochsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_engine_epochs_computed_total",
			Help: "Total number of epoch payout lists computed",
		},
		[]string{"cache"},
	)

	// RootsSubmitted counts successful payout root submissions.
	RootsSubmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_engine_roots_submitted_total",
			Help: "Total number of payout roots submitted on-chain",
		},
	)

	// SubmissionErrors counts failed root queries and submissions.
	SubmissionErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_engine_submission_errors_total",
			Help: "Total number of failed payout root submissions",
		},
	)

	// LedgerHighwatermark tracks the last synced ledger block.
	LedgerHighwatermark = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payout_engine_ledger_highwatermark",
			Help: "Highest ledger block observed by the sync collaborator",
		},
	)

	// LedgerPropositions tracks the number of recorded stakes.
	LedgerPropositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "payout_engine_ledger_propositions",
			Help: "Number of stakes recorded in the ledger",
		},
	)
)

func init() {
	prometheus.MustRegister(EpochsComputed)
	prometheus.MustRegister(RootsSubmitted)
	prometheus.MustRegister(SubmissionErrors)
	prometheus.MustRegister(LedgerHighwatermark)
	prometheus.MustRegister(LedgerPropositions)
}

// Serve starts the /metrics endpoint on the given port. Blocks; run it in a
// goroutine.
func Serve(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	log.WithField("port", port).Info("Starting metrics server")
	if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
		log.WithError(err).Error("Metrics server failed")
	}
}
