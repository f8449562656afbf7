package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the assistant's counters on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	Commands    *prometheus.CounterVec
	Lookups     *prometheus.CounterVec
	Narrations  *prometheus.CounterVec
	Reminders   *prometheus.CounterVec
	Listens     *prometheus.CounterVec
	ListenTime  prometheus.Histogram
	Transcribed prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Commands: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beast_commands_total",
			Help: "Dispatched utterances by matched intent.",
		}, []string{"intent", "source"}),
		Lookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beast_lookups_total",
			Help: "External lookups by kind and outcome.",
		}, []string{"kind", "status"}),
		Narrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beast_narrations_total",
			Help: "Finished narrations by outcome.",
		}, []string{"status"}),
		Reminders: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beast_reminders_total",
			Help: "Reminder lifecycle events.",
		}, []string{"event"}),
		Listens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "beast_listen_sessions_total",
			Help: "Listening sessions by outcome.",
		}, []string{"status"}),
		ListenTime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "beast_listen_duration_seconds",
			Help:    "Time from listen start to transcript.",
			Buckets: prometheus.DefBuckets,
		}),
		Transcribed: f.NewCounter(prometheus.CounterOpts{
			Name: "beast_transcribed_chars_total",
			Help: "Characters of recognized speech.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Outcome labels an error as "ok" or "error".
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
