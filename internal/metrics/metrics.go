// Package metrics exposes the Prometheus counters and histograms the
// driver updates on every tick. Registration happens at package init, the
// same way the teacher's monitoring package wires its collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersIssued counts successful wallet transfers.
	TransfersIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "turbine",
		Name:      "transfers_issued_total",
		Help:      "Number of wallet transfers successfully issued.",
	})

	// TransfersSkipped counts commits a tick declined to pay, tagged by
	// reason.
	TransfersSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "turbine",
		Name:      "transfers_skipped_total",
		Help:      "Number of commits skipped during disbursement, by reason.",
	}, []string{"reason"})

	// RefreshDuration times one full Tick: fetch, walk, verify, register,
	// disburse.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "turbine",
		Name:      "refresh_duration_seconds",
		Help:      "Time spent in one refresh tick.",
		Buckets:   prometheus.DefBuckets,
	})
)

// Skip reasons recorded against TransfersSkipped.
const (
	ReasonAlreadyPaid         = "already_paid"
	ReasonPaymentCheckFailed  = "payment_check_failed"
	ReasonTransferFailed      = "transfer_failed"
	ReasonUnsupportedCurrency = "unsupported_currency"
)
