package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_orders_created_total",
		Help: "Number of bridge orders created.",
	})

	BalanceChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_balance_checks_total",
		Help: "Number of balance checks by resulting order status.",
	}, []string{"status"})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_settlements_total",
		Help: "Number of settlement dispatches by result.",
	}, []string{"result"})

	RateRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_rate_refreshes_total",
		Help: "Number of exchange rate refresh attempts by result.",
	}, []string{"result"})

	ReconciliationPasses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_reconciliation_passes_total",
		Help: "Number of completed reconciliation passes.",
	})

	OrdersFinalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_orders_finalized_total",
		Help: "Number of orders finalized by the reconciler, by terminal status.",
	}, []string{"status"})
)
