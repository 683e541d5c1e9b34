// Package metrics exports ledger activity to Prometheus.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ctrl-pay/ctrl_pay/internal/ledger"
)

// Collector implements ledger.Observer.
type Collector struct {
	registry  *prometheus.Registry
	appended  *prometheus.CounterVec
	volume    *prometheus.CounterVec
	fees      *prometheus.CounterVec
	completed *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	balance   prometheus.Gauge
	reasons   []reason
}

type reason struct {
	target error
	label  string
}

// New registers the ledger collectors on a fresh registry, alongside the Go
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		appended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrlpay_transactions_appended_total",
			Help: "Transactions appended to the session ledger.",
		}, []string{"kind", "status"}),
		volume: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrlpay_transaction_amount_cents_total",
			Help: "Sum of appended transaction amounts in cents.",
		}, []string{"kind", "currency"}),
		fees: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrlpay_transaction_fees_cents_total",
			Help: "Sum of fees on appended transactions in cents.",
		}, []string{"kind"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrlpay_transactions_completed_total",
			Help: "Pending transactions settled to completed.",
		}, []string{"kind"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrlpay_transactions_rejected_total",
			Help: "Appends refused by validation or preconditions.",
		}, []string{"kind", "reason"}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ctrlpay_balance_cents",
			Help: "Available USD balance in cents.",
		}),
	}
	c.registry.MustRegister(
		c.appended, c.volume, c.fees, c.completed, c.rejected, c.balance,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

func (c *Collector) TransactionAppended(tx ledger.Transaction, balance int64) {
	c.appended.WithLabelValues(string(tx.Kind), string(tx.Status)).Inc()
	c.volume.WithLabelValues(string(tx.Kind), string(tx.Currency)).Add(float64(tx.Amount))
	c.fees.WithLabelValues(string(tx.Kind)).Add(float64(tx.Fee))
	c.balance.Set(float64(balance))
}

func (c *Collector) TransactionCompleted(tx ledger.Transaction, balance int64) {
	c.completed.WithLabelValues(string(tx.Kind)).Inc()
	c.balance.Set(float64(balance))
}

func (c *Collector) TransactionRejected(kind ledger.Kind, err error) {
	c.rejected.WithLabelValues(string(kind), c.Reason(err)).Inc()
}

// Classify maps errors matching target to a rejection label. It must be
// called before the collector is attached to a book.
func (c *Collector) Classify(target error, label string) {
	c.reasons = append(c.reasons, reason{target: target, label: label})
}

// Reason reduces err to a bounded label set.
func (c *Collector) Reason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInvalidTransaction):
		return "invalid"
	case errors.Is(err, ledger.ErrDuplicateTransaction):
		return "duplicate"
	}
	for _, r := range c.reasons {
		if errors.Is(err, r.target) {
			return r.label
		}
	}
	return "other"
}
