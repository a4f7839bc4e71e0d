package metrics

import (
	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "froniuslights"

// AccessoryMetrics mirrors the last reading of every accessory as gauges
type AccessoryMetrics struct {
	on           *prometheus.GaugeVec
	level        *prometheus.GaugeVec
	magnitude    *prometheus.GaugeVec
	available    *prometheus.GaugeVec
	pollDuration *prometheus.HistogramVec
	pollErrors   *prometheus.CounterVec

	eventStream  *eventstream.EventStream
	subscription *eventstream.Subscription
}

func NewAccessoryMetrics(reg prometheus.Registerer, eventStream *eventstream.EventStream) *AccessoryMetrics {
	factory := promauto.With(reg)
	return &AccessoryMetrics{
		on: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accessory_on",
			Help:      "Accessory on/off state (1 on, 0 off).",
		}, []string{"accessory"}),
		level: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accessory_level_percent",
			Help:      "Accessory level, 0-100.",
		}, []string{"accessory"}),
		magnitude: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accessory_power_watts",
			Help:      "Power magnitude reported by the accessory sensor.",
		}, []string{"accessory"}),
		available: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "accessory_available",
			Help:      "Whether the last poll produced a reading (1) or not (0).",
		}, []string{"accessory"}),
		pollDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "accessory_poll_duration_seconds",
			Help:      "Duration of accessory polls.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5},
		}, []string{"accessory"}),
		pollErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "accessory_poll_errors_total",
			Help:      "Accessory polls that ended without a snapshot.",
		}, []string{"accessory"}),
		eventStream: eventStream,
	}
}

func (m *AccessoryMetrics) Start() {
	if m.subscription != nil {
		return
	}
	m.subscription = m.eventStream.Subscribe(m.Observe)
}

func (m *AccessoryMetrics) Stop() {
	if m.subscription != nil {
		m.eventStream.Unsubscribe(m.subscription)
		m.subscription = nil
	}
}

func (m *AccessoryMetrics) Observe(evt any) {
	switch e := evt.(type) {
	case domain.AccessoryUpdateEvent:
		m.observeReading(e.Accessory.Id, e.Reading)
	case domain.AccessoryPolledEvent:
		m.pollDuration.WithLabelValues(e.AccessoryId).Observe(e.Duration.Seconds())
		if e.Error != nil {
			m.pollErrors.WithLabelValues(e.AccessoryId).Inc()
		}
	}
}

func (m *AccessoryMetrics) observeReading(id string, r domain.Reading) {
	if !r.Available() {
		m.available.WithLabelValues(id).Set(0)
		// no stale values while the accessory is unavailable
		m.on.DeleteLabelValues(id)
		m.level.DeleteLabelValues(id)
		m.magnitude.DeleteLabelValues(id)
		return
	}
	m.available.WithLabelValues(id).Set(1)
	if on, err := r.On.Get(); err == nil {
		m.on.WithLabelValues(id).Set(boolToFloat(on))
	}
	if level, err := r.Level.Get(); err == nil {
		m.level.WithLabelValues(id).Set(level)
	}
	if magnitude, err := r.Magnitude.Get(); err == nil {
		m.magnitude.WithLabelValues(id).Set(magnitude)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
