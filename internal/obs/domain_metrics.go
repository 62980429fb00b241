package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CartOpsTotal counts cart operation outcomes by endpoint.
	CartOpsTotal *prometheus.CounterVec
	// CartSessionsStarted counts newly minted cart session cookies.
	CartSessionsStarted prometheus.Counter
	// CatalogCacheTotal counts catalog read-through cache outcomes.
	CatalogCacheTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CartOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_operations_total",
			Help:      "Count of cart operation outcomes.",
		}, []string{"operation", "result"})
		CartSessionsStarted = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_sessions_started_total",
			Help:      "Number of new cart sessions issued.",
		})
		CatalogCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_cache_total",
			Help:      "Count of catalog cache lookups by outcome.",
		}, []string{"outcome"})

		mustRegisterCollector(reg, CartOpsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CartOpsTotal = v
			}
		})
		mustRegisterCollector(reg, CartSessionsStarted, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				CartSessionsStarted = v
			}
		})
		mustRegisterCollector(reg, CatalogCacheTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				CatalogCacheTotal = v
			}
		})
	})
}

// ObserveCartOp records a cart operation outcome. It is a no-op until the
// domain metrics are registered, so handler tests need no registry.
func ObserveCartOp(operation, result string) {
	if CartOpsTotal == nil {
		return
	}
	CartOpsTotal.WithLabelValues(operation, result).Inc()
}

// ObserveCartSessionStarted records a freshly issued session cookie.
func ObserveCartSessionStarted() {
	if CartSessionsStarted == nil {
		return
	}
	CartSessionsStarted.Inc()
}

// ObserveCatalogCache records a catalog cache hit or miss.
func ObserveCatalogCache(outcome string) {
	if CatalogCacheTotal == nil {
		return
	}
	CatalogCacheTotal.WithLabelValues(outcome).Inc()
}
