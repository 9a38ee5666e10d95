package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	paymentRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ias_payment_requests_total",
		Help: "Payment intake requests by outcome",
	}, []string{"result"})

	statusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ias_payment_status_updates_total",
		Help: "Admin status updates by target status",
	}, []string{"status"})

	duplicatesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ias_payment_duplicates_removed_total",
		Help: "Duplicate pending payments deleted by intake or cleanup",
	})

	accessGrantsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ias_access_grants_total",
		Help: "Access grant attempts by category and result",
	}, []string{"category", "result"})

	paymentsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ias_payments_expired_total",
		Help: "Pending payments moved to expired by the expiry job",
	})
)
