package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorDefaults(t *testing.T) {
	c := NewCollector(nil)
	require.NotNil(t, c.Registry())

	c.RecordMessage("x", "mention")
	c.RecordMessage("x", "mention")
	c.RecordMessage("telegram", "dm")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.messagesProcessed.WithLabelValues("x", "mention")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.messagesProcessed.WithLabelValues("telegram", "dm")))
}

func TestCollectorConversions(t *testing.T) {
	c := NewCollector(&Config{Namespace: "testns", Registry: prometheus.NewRegistry()})

	c.RecordConversion("stake", "sportybet", "ok", 120*time.Millisecond)
	c.RecordConversion("stake", "sportybet", "ok", 80*time.Millisecond)
	c.RecordConversion("bet9ja", "1xbet", "failed", 50*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.conversions.WithLabelValues("stake", "sportybet", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.conversions.WithLabelValues("bet9ja", "1xbet", "failed")))

	count := testutil.CollectAndCount(c.conversionLatency, "testns_conversion_duration_seconds")
	assert.Equal(t, 2, count)
}

func TestCollectorSessionGauge(t *testing.T) {
	c := NewCollector(nil)

	c.SetSessionUp("x", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionUp.WithLabelValues("x")))

	c.SetSessionUp("x", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.sessionUp.WithLabelValues("x")))
}

func TestCollectorNilSafe(t *testing.T) {
	var c *Collector

	c.RecordMessage("x", "mention")
	c.RecordReply("x", "mention")
	c.RecordPollError("x", "dm")
	c.RecordConversion("a", "b", "ok", time.Second)
	c.SetSessionUp("x", true)
	assert.Nil(t, c.Registry())
}
