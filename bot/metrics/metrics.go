package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector owns the Prometheus metrics for the bot.
type Collector struct {
	registry *prometheus.Registry

	messagesProcessed *prometheus.CounterVec
	repliesSent       *prometheus.CounterVec
	pollErrors        *prometheus.CounterVec
	conversions       *prometheus.CounterVec
	conversionLatency *prometheus.HistogramVec
	sessionUp         *prometheus.GaugeVec
}

// Config holds configuration for metrics collection.
type Config struct {
	Namespace string
	Subsystem string
	Registry  *prometheus.Registry
}

// NewCollector creates a collector and registers all metrics.
func NewCollector(config *Config) *Collector {
	if config == nil {
		config = &Config{}
	}
	if config.Namespace == "" {
		config.Namespace = "flexcodebot"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}

	c := &Collector{registry: config.Registry}
	c.initMetrics(config.Namespace, config.Subsystem)
	return c
}

func (c *Collector) initMetrics(namespace, subsystem string) {
	c.messagesProcessed = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "messages_processed_total",
			Help:      "Total number of inbound messages processed",
		},
		[]string{"transport", "kind"},
	)

	c.repliesSent = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "replies_sent_total",
			Help:      "Total number of replies delivered",
		},
		[]string{"transport", "kind"},
	)

	c.pollErrors = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "poll_errors_total",
			Help:      "Total number of failed transport poll cycles",
		},
		[]string{"transport", "kind"},
	)

	c.conversions = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversions_total",
			Help:      "Total number of code conversion attempts",
		},
		[]string{"source", "target", "status"},
	)

	c.conversionLatency = promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting one code",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		},
		[]string{"status"},
	)

	c.sessionUp = promauto.With(c.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "session_up",
			Help:      "Whether a transport session is running (1 = running)",
		},
		[]string{"transport"},
	)
}

// RecordMessage counts one processed inbound message.
func (c *Collector) RecordMessage(transport, kind string) {
	if c == nil {
		return
	}
	c.messagesProcessed.WithLabelValues(transport, kind).Inc()
}

// RecordReply counts one delivered reply.
func (c *Collector) RecordReply(transport, kind string) {
	if c == nil {
		return
	}
	c.repliesSent.WithLabelValues(transport, kind).Inc()
}

// RecordPollError counts one failed poll cycle.
func (c *Collector) RecordPollError(transport, kind string) {
	if c == nil {
		return
	}
	c.pollErrors.WithLabelValues(transport, kind).Inc()
}

// RecordConversion counts one conversion attempt and its latency.
func (c *Collector) RecordConversion(source, target, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.conversions.WithLabelValues(source, target, status).Inc()
	c.conversionLatency.WithLabelValues(status).Observe(duration.Seconds())
}

// SetSessionUp flags a transport session as running or stopped.
func (c *Collector) SetSessionUp(transport string, up bool) {
	if c == nil {
		return
	}
	value := 0.0
	if up {
		value = 1.0
	}
	c.sessionUp.WithLabelValues(transport).Set(value)
}

// Registry returns the backing registry for exposition handlers.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
