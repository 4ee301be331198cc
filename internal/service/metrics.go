package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	paymentsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ledger_payments_processed_total",
			Help: "Payments admitted to the ledger, by kind",
		},
		[]string{"kind"},
	)
	settlementsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_settlements_total",
			Help: "Settlement batches cleared (explicit and auto)",
		},
	)
	withdrawalsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ledger_withdrawals_total",
			Help: "Host withdrawals authorized",
		},
	)
)

func init() {
	prometheus.MustRegister(paymentsProcessed)
	prometheus.MustRegister(settlementsTotal)
	prometheus.MustRegister(withdrawalsTotal)
}
