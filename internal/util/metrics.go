package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SalesCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_completed_total",
		Help: "Total number of completed sales",
	})

	SalesPendingTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_pending_total",
		Help: "Total number of carts saved as pending orders",
	})

	SalesPartialTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_partial_failure_total",
		Help: "Total number of sales recorded with incomplete side effects",
	})

	SalesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sales_failed_total",
		Help: "Total number of failed checkouts",
	}, []string{"reason"})

	SalesCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sales_cancelled_total",
		Help: "Total number of cancelled sales",
	})

	SplitPaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "split_payments_total",
		Help: "Total number of sales paid with two methods",
	})

	CheckoutLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_latency_seconds",
		Help:    "Latency of the complete-sale use case",
		Buckets: prometheus.DefBuckets,
	})

	StockDecrementsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_decrements_failed_total",
		Help: "Total number of failed stock decrements",
	}, []string{"reason"})

	SubscriptionPeriodsPaidTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "subscription_periods_paid_total",
		Help: "Total number of subscription periods settled at checkout",
	})

	OutboxRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_retries_total",
		Help: "Total number of outbox side-effect retries",
	}, []string{"effect", "result"})

	ImportRowsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "import_rows_total",
		Help: "Total number of spreadsheet rows imported",
	}, []string{"entity", "result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
