// internal/common/observability/observability_test.go
package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObservability_ZeroValueIsSafe(t *testing.T) {
	var o *Observability
	ctx, span := o.StartSpan(context.Background(), "listing.fetch")
	defer span.End()

	assert.NotNil(t, ctx)
	o.RecordFetch(ctx, "active", "ok")
	o.RecordFetchDuration(ctx, time.Millisecond, "active")
	o.Shutdown()
}

func TestObservability_New(t *testing.T) {
	o := New("stock-backoffice-test")
	defer o.Shutdown()

	ctx, span := o.StartSpan(context.Background(), "listing.fetch")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	o.RecordFetch(ctx, "archive", "empty")
	o.RecordFetchDuration(ctx, 12*time.Millisecond, "archive")
}
