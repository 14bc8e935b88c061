package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gathered(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			name := fam.GetName()
			for _, label := range metric.GetLabel() {
				name += "/" + label.GetValue()
			}
			switch {
			case metric.GetCounter() != nil:
				values[name] = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[name] = metric.GetGauge().GetValue()
			}
		}
	}
	return values
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	hooks := observability.NewMetrics(reg).Hooks()
	ctx := context.Background()

	hooks.OnAttach(ctx, &domain.AttachEvent{NodeID: "n1", TypeName: "Tab", Capability: domain.CapabilityBehavior})
	hooks.OnAttach(ctx, &domain.AttachEvent{NodeID: "n1", TypeName: "Tab", Capability: domain.CapabilityBehavior})
	hooks.OnAttach(ctx, &domain.AttachEvent{NodeID: "u1", TypeName: "Uploader", Capability: domain.CapabilityComponent})
	hooks.OnDetach(ctx, &domain.DetachEvent{NodeID: "n1", Instances: 2})
	hooks.OnDestroy(ctx, &domain.DestroyEvent{NodeID: "n1", Subscriptions: 3})

	values := gathered(t, reg)
	assert.Equal(t, float64(2), values["espalier_attaches_total/Tab/behavior"])
	assert.Equal(t, float64(1), values["espalier_attaches_total/Uploader/component"])
	assert.Equal(t, float64(1), values["espalier_destroys_total"])
	assert.Equal(t, float64(1), values["espalier_live_instances"])
}
