package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mavenrepo"

// Prom records publish, purge and HTTP request metrics.
type Prom struct {
	publishes *prometheus.CounterVec
	purged    *prometheus.CounterVec
	requests  *prometheus.HistogramVec
	gatherer  prometheus.Gatherer
}

// NewProm registers the collectors on reg. A nil reg uses a fresh registry.
func NewProm(reg *prometheus.Registry) *Prom {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prom{
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_total",
			Help:      "Uploads by repository and outcome",
		}, []string{"repo", "outcome"}),
		purged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "purge_deleted_total",
			Help:      "Objects deleted by purge per repository",
		}, []string{"repo"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
		gatherer: reg,
	}
	reg.MustRegister(p.publishes, p.purged, p.requests)
	return p
}

func (p *Prom) ObservePublish(repo, outcome string) {
	p.publishes.WithLabelValues(repo, outcome).Inc()
}

func (p *Prom) ObservePurge(repo string, deleted int) {
	p.purged.WithLabelValues(repo).Add(float64(deleted))
}

func (p *Prom) ObserveRequest(method string, status int, elapsed time.Duration) {
	p.requests.WithLabelValues(method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (p *Prom) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}
