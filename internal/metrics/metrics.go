package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the interface the service layer records through, so tests
// and the worker can run without a live registry.
type Recorder interface {
	SessionCreated()
	SessionResumed()
	SessionsExpired(count int64)
	AccountLinked()
	TeamCreated()
	TeamJoined()
}

// Nop discards all measurements.
type Nop struct{}

func (Nop) SessionCreated()       {}
func (Nop) SessionResumed()       {}
func (Nop) SessionsExpired(int64) {}
func (Nop) AccountLinked()        {}
func (Nop) TeamCreated()          {}
func (Nop) TeamJoined()           {}

// Collector implements Recorder on top of Prometheus.
type Collector struct {
	sessionsCreated prometheus.Counter
	sessionsResumed prometheus.Counter
	sessionsExpired prometheus.Counter
	accountsLinked  prometheus.Counter
	teamsCreated    prometheus.Counter
	teamsJoined     prometheus.Counter
	httpDuration    *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with the
// given registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_sessions_created_total",
			Help: "Total number of sessions created.",
		}),
		sessionsResumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_sessions_resumed_total",
			Help: "Total number of sessions resumed from an existing token.",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_sessions_expired_total",
			Help: "Total number of sessions removed by the expiry sweep.",
		}),
		accountsLinked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_accounts_linked_total",
			Help: "Total number of sessions linked or upgraded to an account.",
		}),
		teamsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_teams_created_total",
			Help: "Total number of teams created.",
		}),
		teamsJoined: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_teams_joined_total",
			Help: "Total number of successful invite-code joins.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "retroboard_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status code.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}

	reg.MustRegister(
		c.sessionsCreated,
		c.sessionsResumed,
		c.sessionsExpired,
		c.accountsLinked,
		c.teamsCreated,
		c.teamsJoined,
		c.httpDuration,
	)

	return c
}

func (c *Collector) SessionCreated() { c.sessionsCreated.Inc() }

func (c *Collector) SessionResumed() { c.sessionsResumed.Inc() }

func (c *Collector) SessionsExpired(count int64) { c.sessionsExpired.Add(float64(count)) }

func (c *Collector) AccountLinked() { c.accountsLinked.Inc() }

func (c *Collector) TeamCreated() { c.teamsCreated.Inc() }

func (c *Collector) TeamJoined() { c.teamsJoined.Inc() }

// ObserveHTTPRequest records one served request.
func (c *Collector) ObserveHTTPRequest(method string, status int, duration time.Duration) {
	c.httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for the given gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Compile-time interface satisfaction checks
var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Nop{}
)
