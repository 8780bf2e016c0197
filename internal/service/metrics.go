package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mergeRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_merge_rows_total",
		Help: "Rows handled by session merges, by collection and outcome.",
	}, []string{"collection", "outcome"})

	mergeRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_merge_runs_total",
		Help: "Session merges run, by result.",
	}, []string{"result"})

	couponValidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_coupon_validations_total",
		Help: "Coupon validations, by result.",
	}, []string{"result"})

	paymentOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_payment_outcomes_total",
		Help: "Payments finished, by provider and outcome.",
	}, []string{"provider", "outcome"})
)
