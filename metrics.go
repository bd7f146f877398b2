package archserver

import (
	"strconv"
	"time"

	"github.com/jirevwe/archserver/pool"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "archserver"

// Metrics holds the Prometheus collectors fed by the worker pool hooks
// and by served requests. Each Metrics owns its registry.
type Metrics struct {
	Registry *prometheus.Registry

	TasksSubmitted prometheus.Counter
	TasksRejected  prometheus.Counter
	TasksDiscarded prometheus.Counter
	TasksPanicked  prometheus.Counter
	TasksQueued    prometheus.Gauge
	BusyWorkers    prometheus.Gauge
	TaskDuration   prometheus.Histogram
	Requests       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "tasks_submitted_total",
			Help:      "Total number of tasks accepted by the pool",
		}),
		TasksRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "tasks_rejected_total",
			Help:      "Total number of tasks submitted after shutdown began",
		}),
		TasksDiscarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "tasks_discarded_total",
			Help:      "Total number of queued tasks dropped at shutdown",
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "tasks_panicked_total",
			Help:      "Total number of tasks that panicked",
		}),
		TasksQueued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "tasks_queued",
			Help:      "Current number of tasks waiting for a worker",
		}),
		BusyWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "busy_workers",
			Help:      "Current number of workers running a task",
		}),
		TaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pool",
			Name:      "task_duration_seconds",
			Help:      "Time spent running a task",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Total number of answered requests by status code",
		}, []string{"status"}),
	}

	m.Registry.MustRegister(
		m.TasksSubmitted,
		m.TasksRejected,
		m.TasksDiscarded,
		m.TasksPanicked,
		m.TasksQueued,
		m.BusyWorkers,
		m.TaskDuration,
		m.Requests,
	)

	return m
}

// Hooks returns pool hooks that keep the collectors current.
func (m *Metrics) Hooks() pool.Hooks {
	return pool.Hooks{
		OnSubmit: func() {
			m.TasksSubmitted.Inc()
			m.TasksQueued.Inc()
		},
		OnReject: m.TasksRejected.Inc,
		OnStart: func(int) {
			m.TasksQueued.Dec()
			m.BusyWorkers.Inc()
		},
		OnFinish: func(_ int, elapsed time.Duration) {
			m.BusyWorkers.Dec()
			m.TaskDuration.Observe(elapsed.Seconds())
		},
		OnPanic: func(int, *pool.PanicError) {
			m.TasksPanicked.Inc()
		},
		OnDiscard: func() {
			m.TasksDiscarded.Inc()
			m.TasksQueued.Dec()
		},
	}
}

// RequestServed counts one answered request.
func (m *Metrics) RequestServed(status int) {
	m.Requests.WithLabelValues(strconv.Itoa(status)).Inc()
}
