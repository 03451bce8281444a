package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("status", "finalized"),
		attribute.String("customer_tax_id", "B12345678"),
		attribute.String("reason", "item_count"),
	)
	assert.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("status"))
	assert.Contains(t, keys, attribute.Key("reason"))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordInvoiceSaved(ctx, "finalized")
		m.RecordInvoiceCancelled(ctx, "superseded")
		m.RecordGuardBlocked(ctx, "total_delta")
		m.RecordBackfillMissed(ctx, "product_id")
	})
}

func TestNoopMetricsRecord(t *testing.T) {
	m := NewNoop()
	assert.NotNil(t, m)
	assert.NotPanics(t, func() {
		m.RecordGuardBlocked(context.Background(), "item_count")
	})
}
