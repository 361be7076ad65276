package worker

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"waphone/internal/domain"
	"waphone/internal/observability"
	"waphone/internal/orders"
)

type handlerFunc func(ctx context.Context, ev domain.OrderStatusEvent) orders.Result

func (f handlerFunc) Handle(ctx context.Context, ev domain.OrderStatusEvent) orders.Result {
	return f(ctx, ev)
}

func TestProcessAcknowledgesEveryResult(t *testing.T) {
	for _, res := range []orders.Result{orders.ResultSent, orders.ResultFailed, orders.ResultNoPhone, orders.ResultError} {
		counter := observability.OrderEvents.WithLabelValues(string(res))
		before := testutil.ToFloat64(counter)

		p := &Processor{Orders: handlerFunc(func(context.Context, domain.OrderStatusEvent) orders.Result { return res })}
		assert.NoError(t, p.Process(context.Background(), domain.OrderStatusEvent{OrderID: "1", Status: "shipped"}))
		assert.Equal(t, before+1, testutil.ToFloat64(counter), res)
	}
}

func TestProcessAppliesTimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	p := &Processor{
		Timeout: time.Minute,
		Orders: handlerFunc(func(ctx context.Context, _ domain.OrderStatusEvent) orders.Result {
			deadline, hasDeadline = ctx.Deadline()
			return orders.ResultSent
		}),
	}
	_ = p.Process(context.Background(), domain.OrderStatusEvent{})

	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}
