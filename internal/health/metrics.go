package health

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

func stateAttr(s State) attribute.KeyValue {
	return attribute.String("state", s.String())
}

func (m *Monitor) initMetrics() error {
	if m.meter == nil {
		return nil
	}
	probes, err := m.meter.Int64Counter("loqa.sign.health.probes", metric.WithDescription("Backend liveness probes by outcome"))
	if err != nil {
		return err
	}
	m.probes = probes

	gauge, err := m.meter.Int64ObservableGauge("loqa.sign.connection.state", metric.WithDescription("Backend connection state (0 unknown, 1 connected, 2 unavailable, 3 offline)"))
	if err != nil {
		return err
	}
	_, err = m.meter.RegisterCallback(func(_ context.Context, obs metric.Observer) error {
		obs.ObserveInt64(gauge, int64(m.State()))
		return nil
	}, gauge)
	return err
}
