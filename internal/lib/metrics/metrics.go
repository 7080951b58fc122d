// Package metrics содержит счётчики Prometheus для переходов статусов,
// публикации событий, HTTP-запросов и периодических задач.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор метрик сервиса. Методы безопасны для nil-получателя,
// поэтому в тестах метрики можно не передавать.
type Metrics struct {
	transitions     *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobFailures     *prometheus.CounterVec
}

// New регистрирует метрики в reg. При nil reg возвращаются метрики-заглушки.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewa_status_transitions_total",
			Help: "Applied status transitions by entity.",
		}, []string{"entity", "from", "to"}),
		publishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewa_event_publish_failures_total",
			Help: "Events that could not be published to the broker.",
		}, []string{"routing_key"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewa_http_requests_total",
			Help: "Handled HTTP requests.",
		}, []string{"method", "route", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ewa_job_duration_seconds",
			Help:    "Duration of scheduled jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ewa_job_failures_total",
			Help: "Failed scheduled job runs.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.transitions, m.publishFailures, m.httpRequests, m.jobDuration, m.jobFailures)
	return m
}

// Transition учитывает переход сущности entity из from в to.
func (m *Metrics) Transition(entity, from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(entity, from, to).Inc()
}

// PublishFailed учитывает событие, не доставленное в брокер.
func (m *Metrics) PublishFailed(routingKey string) {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.WithLabelValues(routingKey).Inc()
}

// HTTPRequest учитывает обработанный запрос.
func (m *Metrics) HTTPRequest(method, route string, status int) {
	if m == nil || m.httpRequests == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Job учитывает выполнение периодической задачи.
func (m *Metrics) Job(job string, started time.Time, err error) {
	if m == nil || m.jobDuration == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	if err != nil {
		m.jobFailures.WithLabelValues(job).Inc()
	}
}
