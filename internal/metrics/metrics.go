// Package metrics exposes the process's prometheus registry plus a set of
// expvar gauges for live room/session counts, mirroring the teacher's
// hub.go which publishes "LiveTopics" via expvar alongside its own
// counters. Every metric is attached to a private registry rather than
// the global prometheus default, so tests can spin up independent
// Metrics without cross-contaminating counters.
package metrics

import (
	"expvar"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every counter/histogram/gauge the core exports.
type Metrics struct {
	Registry *prometheus.Registry

	MessageCreateLatency prometheus.Histogram
	MessagesCreatedTotal prometheus.Counter
	ExpireJobBatchSize   prometheus.Histogram
	ExpireJobTombstoned  prometheus.Counter
	TranslationCacheHits prometheus.Counter
	TranslationCacheMiss prometheus.Counter
	TranslationErrors    prometheus.Counter

	liveRooms    *expvar.Int
	liveSessions *expvar.Int
}

// New builds a Metrics bundle and registers everything on a fresh
// registry, following the teacher's pattern of module-scoped expvar
// publication (`expvar.Publish("LiveTopics", ...)`).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		MessageCreateLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "message_create_seconds",
			Help: "Latency of the message creation pipeline.",
		}),
		MessagesCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "messages_created_total",
			Help: "Total messages successfully created.",
		}),
		ExpireJobBatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "expire_job_batch_size",
			Help: "Size of each retention expire-worker batch.",
		}),
		ExpireJobTombstoned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "expire_job_tombstoned_total",
			Help: "Total messages tombstoned by the expire worker.",
		}),
		TranslationCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "translation_cache_hits_total",
			Help: "Translation cache hits.",
		}),
		TranslationCacheMiss: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "translation_cache_misses_total",
			Help: "Translation cache misses.",
		}),
		TranslationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "translation_errors_total",
			Help: "Translation provider failures, downgraded to no-translation.",
		}),
		liveRooms:    new(expvar.Int),
		liveSessions: new(expvar.Int),
	}

	reg.MustRegister(
		m.MessageCreateLatency,
		m.MessagesCreatedTotal,
		m.ExpireJobBatchSize,
		m.ExpireJobTombstoned,
		m.TranslationCacheHits,
		m.TranslationCacheMiss,
		m.TranslationErrors,
	)

	publishOnce("LiveRooms", m.liveRooms)
	publishOnce("LiveSessions", m.liveSessions)

	return m
}

// publishOnce guards expvar.Publish against the panic it raises when a
// name is already registered, which matters once tests build more than
// one Metrics in the same process.
func publishOnce(name string, v expvar.Var) {
	if expvar.Get(name) != nil {
		return
	}
	expvar.Publish(name, v)
}

func (m *Metrics) RoomOpened()  { m.liveRooms.Add(1) }
func (m *Metrics) RoomClosed()  { m.liveRooms.Add(-1) }
func (m *Metrics) SessionOpened() { m.liveSessions.Add(1) }
func (m *Metrics) SessionClosed() { m.liveSessions.Add(-1) }
