package obs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bakehouse/pricing-api/internal/events"
)

var (
	domainOnce sync.Once

	// QuoteTotal counts quote evaluations by outcome.
	QuoteTotal *prometheus.CounterVec
	// QuoteDuration records quote evaluation latency in milliseconds.
	QuoteDuration *prometheus.HistogramVec
	// TaxWarningsTotal counts tax compliance warnings by kind.
	TaxWarningsTotal *prometheus.CounterVec
	// QuoteEventsTotal counts emitted quote lifecycle events by topic.
	QuoteEventsTotal *prometheus.CounterVec
	// RuleCacheMisses counts rule store reads that fell through to Postgres.
	RuleCacheMisses prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		QuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_total",
			Help:      "Count of quote evaluations by outcome.",
		}, []string{"result"})
		QuoteDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quote_duration_ms",
			Help:      "Quote evaluation latency in milliseconds.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		}, []string{"result"})
		TaxWarningsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tax_warnings_total",
			Help:      "Count of tax compliance warnings by kind.",
		}, []string{"warning"})
		QuoteEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_events_total",
			Help:      "Count of emitted quote lifecycle events by topic.",
		}, []string{"topic"})
		RuleCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_cache_misses_total",
			Help:      "Rule store reads that fell through to Postgres.",
		})

		mustRegisterCollector(reg, QuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.HistogramVec); ok {
				QuoteDuration = v
			}
		})
		mustRegisterCollector(reg, TaxWarningsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				TaxWarningsTotal = v
			}
		})
		mustRegisterCollector(reg, QuoteEventsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				QuoteEventsTotal = v
			}
		})
		mustRegisterCollector(reg, RuleCacheMisses, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				RuleCacheMisses = v
			}
		})
	})
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}

// ObserveQuote records one quote evaluation outcome and its latency.
// Safe to call before MustRegisterDomainMetrics.
func ObserveQuote(result string, d time.Duration) {
	if QuoteTotal != nil {
		QuoteTotal.WithLabelValues(result).Inc()
	}
	if QuoteDuration != nil {
		QuoteDuration.WithLabelValues(result).Observe(DurationMillis(d))
	}
}

// CountTaxWarnings records emitted tax compliance warnings. The label is
// the warning kind, the text before the first colon.
func CountTaxWarnings(warnings []string) {
	if TaxWarningsTotal == nil {
		return
	}
	for _, w := range warnings {
		kind, _, _ := strings.Cut(w, ":")
		TaxWarningsTotal.WithLabelValues(strings.TrimSpace(kind)).Inc()
	}
}

// CountRuleCacheMiss records a rule read that fell through to Postgres.
func CountRuleCacheMiss() {
	if RuleCacheMisses != nil {
		RuleCacheMisses.Inc()
	}
}

// EventCounter is an event bus listener that counts emitted events by topic.
type EventCounter struct{}

// Notify implements events.Listener.
func (EventCounter) Notify(_ context.Context, ev events.Event) error {
	if QuoteEventsTotal != nil {
		QuoteEventsTotal.WithLabelValues(ev.Topic).Inc()
	}
	return nil
}
