package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WizardTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Total number of workflow step transitions",
		},
		[]string{"from", "to"},
	)

	WizardTransitionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_rejected_total",
			Help: "Total number of rejected transition attempts",
		},
		[]string{"step", "code"},
	)

	WizardDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_decisions_total",
			Help: "Total number of application decisions by outcome",
		},
		[]string{"outcome"},
	)

	IntentRuleHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_intent_rule_hits_total",
			Help: "Total number of classifier matches per rule",
		},
		[]string{"rule"},
	)

	SignatureDispatches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_signature_dispatches_total",
			Help: "Total number of signature requests by role and status",
		},
		[]string{"role", "status"},
	)

	CollaboratorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "wizard_collaborator_duration_seconds",
			Help: "Duration of awaited external collaborator calls",
		},
		[]string{"service"},
	)
)
