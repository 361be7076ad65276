package sqsqueue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"waphone/internal/domain"
)

type Consumer struct {
	SQS      API
	QueueURL string

	WaitTimeSeconds   int32
	MaxMessages       int32
	VisibilityTimeout int32

	// ReceiveBackoff is the pause after a failed receive. Defaults to 500ms.
	ReceiveBackoff time.Duration
}

type Handler func(ctx context.Context, ev domain.OrderStatusEvent) error

// Poll handles messages one at a time until ctx is done.
func (c *Consumer) Poll(ctx context.Context, handler Handler) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		msgs, err := c.receive(ctx)
		if err != nil {
			continue
		}
		for _, m := range msgs {
			c.handle(ctx, m, handler)
		}
	}
}

// PollConcurrent processes messages with a worker pool. Messages are deleted
// only after the handler succeeds; failed ones become visible again and are
// redriven by SQS.
func (c *Consumer) PollConcurrent(ctx context.Context, workers int, handler Handler) error {
	if workers <= 0 {
		return c.Poll(ctx, handler)
	}

	jobs := make(chan types.Message, workers*2)
	errCh := make(chan error, 1)

	sendErr := func(err error) {
		select {
		case errCh <- err:
		default:
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range jobs {
				c.handle(ctx, m, handler)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for {
			if ctx.Err() != nil {
				sendErr(ctx.Err())
				return
			}
			msgs, err := c.receive(ctx)
			if err != nil {
				continue
			}
			for _, m := range msgs {
				select {
				case jobs <- m:
				case <-ctx.Done():
					sendErr(ctx.Err())
					return
				}
			}
		}
	}()

	err := <-errCh
	wg.Wait()
	return err
}

func (c *Consumer) receive(ctx context.Context) ([]types.Message, error) {
	out, err := c.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &c.QueueURL,
		MaxNumberOfMessages: c.MaxMessages,
		WaitTimeSeconds:     c.WaitTimeSeconds,
		VisibilityTimeout:   c.VisibilityTimeout,
	})
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("sqs receive message failed", "err", err)
			backoff := c.ReceiveBackoff
			if backoff <= 0 {
				backoff = 500 * time.Millisecond
			}
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
			}
		}
		return nil, err
	}
	return out.Messages, nil
}

func (c *Consumer) handle(ctx context.Context, m types.Message, handler Handler) {
	// Poison payloads are deleted so they don't loop forever.
	if m.Body == nil {
		c.delete(ctx, m)
		return
	}
	var ev domain.OrderStatusEvent
	if err := json.Unmarshal([]byte(*m.Body), &ev); err != nil {
		slog.Warn("dropping malformed order event", "err", err, "sqs_message_id", deref(m.MessageId))
		c.delete(ctx, m)
		return
	}
	if err := handler(ctx, ev); err != nil {
		slog.Error("order event handler error", "err", err, "event_id", ev.EventID, "order_id", ev.OrderID)
		return
	}
	c.delete(ctx, m)
}

func (c *Consumer) delete(ctx context.Context, m types.Message) {
	if _, err := c.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.QueueURL,
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		slog.Error("sqs delete message failed", "err", err, "sqs_message_id", deref(m.MessageId))
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
