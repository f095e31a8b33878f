package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics exposes the live outbox state. The gauges mirror the per-status
// record counts; the counter tracks publish outcomes per tick.
type metrics struct {
	pending   prometheus.Gauge
	published prometheus.Gauge
	failed    prometheus.Gauge
	outcomes  *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_records_pending",
			Help: "Number of outbox records awaiting publish.",
		}),
		published: factory.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_records_published",
			Help: "Number of outbox records acknowledged by the broker.",
		}),
		failed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "outbox_records_failed",
			Help: "Number of outbox records parked after exhausting retries.",
		}),
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "outbox_publish_attempts_total",
			Help: "Publish attempts by outcome.",
		}, []string{"outcome"}),
	}
}
