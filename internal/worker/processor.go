package worker

import (
	"context"
	"log/slog"
	"time"

	"waphone/internal/domain"
	"waphone/internal/observability"
	"waphone/internal/orders"
)

type OrderHandler interface {
	Handle(ctx context.Context, ev domain.OrderStatusEvent) orders.Result
}

// Processor adapts the order handler to the queue consumer. Every event is
// acknowledged once handled; failed deliveries are not redriven.
type Processor struct {
	Orders OrderHandler
	// Timeout bounds one event, fallback hop included. Zero means no bound.
	Timeout time.Duration
}

func (p *Processor) Process(ctx context.Context, ev domain.OrderStatusEvent) error {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	start := time.Now()
	res := p.Orders.Handle(ctx, ev)
	observability.OrderEvents.WithLabelValues(string(res)).Inc()
	slog.Info("order event processed",
		"event_id", ev.EventID,
		"order_id", ev.OrderID,
		"status", ev.Status,
		"result", string(res),
		"duration", time.Since(start),
	)
	return nil
}
