package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/berfenger/froniuslights/internal/core/domain"

	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestAccessoryMetrics(t *testing.T) {

	require := require.New(t)

	reg := prometheus.NewRegistry()
	es := &eventstream.EventStream{}
	m := NewAccessoryMetrics(reg, es)
	m.Start()
	defer m.Stop()

	es.Publish(domain.AccessoryUpdateEvent{
		Accessory: domain.NewAccessoryInfo(domain.METERING_EXPORT, domain.DeviceIdentity{}),
		Reading: domain.Reading{
			On:        domain.Ok(true),
			Level:     domain.Ok(80.0),
			Magnitude: domain.Ok(500.0),
		},
	})
	es.Publish(domain.AccessoryPolledEvent{AccessoryId: "export", Duration: 120 * time.Millisecond})

	require.Equal(1.0, testutil.ToFloat64(m.on.WithLabelValues("export")))
	require.Equal(80.0, testutil.ToFloat64(m.level.WithLabelValues("export")))
	require.Equal(500.0, testutil.ToFloat64(m.magnitude.WithLabelValues("export")))
	require.Equal(1.0, testutil.ToFloat64(m.available.WithLabelValues("export")))
	require.Equal(0.0, testutil.ToFloat64(m.pollErrors.WithLabelValues("export")))
	require.Equal(1, testutil.CollectAndCount(m.pollDuration))
}

func TestAccessoryMetricsUnavailable(t *testing.T) {

	require := require.New(t)

	es := &eventstream.EventStream{}
	m := NewAccessoryMetrics(prometheus.NewRegistry(), es)
	m.Start()
	defer m.Stop()

	es.Publish(domain.AccessoryUpdateEvent{
		Accessory: domain.NewAccessoryInfo(domain.METERING_LOAD, domain.DeviceIdentity{}),
		Reading:   domain.UnavailableReading(domain.ErrUnavailable),
	})
	es.Publish(domain.AccessoryPolledEvent{AccessoryId: "load", Error: errors.New("timeout")})

	require.Equal(0.0, testutil.ToFloat64(m.available.WithLabelValues("load")))
	require.Equal(1.0, testutil.ToFloat64(m.pollErrors.WithLabelValues("load")))
	require.Equal(0, testutil.CollectAndCount(m.level))
}

func TestAccessoryMetricsDropStaleValues(t *testing.T) {

	require := require.New(t)

	es := &eventstream.EventStream{}
	m := NewAccessoryMetrics(prometheus.NewRegistry(), es)
	m.Start()
	defer m.Stop()

	info := domain.NewAccessoryInfo(domain.METERING_LOAD, domain.DeviceIdentity{})
	es.Publish(domain.AccessoryUpdateEvent{
		Accessory: info,
		Reading: domain.Reading{
			On:        domain.Ok(true),
			Level:     domain.Ok(100.0),
			Magnitude: domain.Ok(1234.0),
		},
	})
	require.Equal(1234.0, testutil.ToFloat64(m.magnitude.WithLabelValues("load")))

	es.Publish(domain.AccessoryUpdateEvent{
		Accessory: info,
		Reading:   domain.UnavailableReading(domain.ErrUnavailable),
	})

	require.Equal(0.0, testutil.ToFloat64(m.available.WithLabelValues("load")))
	require.Equal(0, testutil.CollectAndCount(m.on))
	require.Equal(0, testutil.CollectAndCount(m.level))
	require.Equal(0, testutil.CollectAndCount(m.magnitude))
}
