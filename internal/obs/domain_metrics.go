package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts checkout outcomes by result.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrderNumberRetriesTotal counts order number collisions that forced a retry.
	OrderNumberRetriesTotal prometheus.Counter
	// OrderTransitionsTotal counts status transition attempts by target status and result.
	OrderTransitionsTotal *prometheus.CounterVec
	// NotificationsFanoutTotal counts per-recipient fan-out outcomes.
	NotificationsFanoutTotal *prometheus.CounterVec
	// QueueTasksTotal counts queue task completions by kind and result.
	QueueTasksTotal *prometheus.CounterVec
	// QueueDLQTotal counts tasks that exhausted their attempts and moved to the DLQ.
	QueueDLQTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of checkout attempts by outcome.",
		}, []string{"result"}))
		OrderNumberRetriesTotal = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_number_retries_total",
			Help:      "Count of order number collisions that triggered a regeneration.",
		}))
		OrderTransitionsTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Count of order status transition attempts by target and result.",
		}, []string{"status", "result"}))
		NotificationsFanoutTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_fanout_total",
			Help:      "Count of per-recipient notification fan-out outcomes.",
		}, []string{"result"}))
		QueueTasksTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_tasks_total",
			Help:      "Count of background task completions by kind and result.",
		}, []string{"kind", "result"}))
		QueueDLQTotal = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queue_dlq_total",
			Help:      "Count of background tasks moved to the dead-letter queue.",
		}, []string{"kind"}))
	})
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter) prometheus.Counter {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
