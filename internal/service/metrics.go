package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_step_transitions_total",
			Help: "Total number of checkout step transitions",
		},
		[]string{"from", "to"},
	)

	externalCallFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_external_call_failures_total",
			Help: "Total number of failed calls to coordination services",
		},
		[]string{"service"},
	)

	intentLatchRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_intent_latch_rejections_total",
			Help: "Total number of payment intent creations rejected by the one-shot latch",
		},
	)
)
