package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waphone/internal/domain"
	"waphone/internal/observability"
	"waphone/internal/otp"
	"waphone/internal/store"
)

type fakeQueue struct {
	events []domain.OrderStatusEvent
	err    error
}

func (q *fakeQueue) EnqueueOrderEvent(_ context.Context, ev domain.OrderStatusEvent) (string, error) {
	if q.err != nil {
		return "", q.err
	}
	q.events = append(q.events, ev)
	return "evt_1", nil
}

func TestGenerateOTPUsesConfiguredLength(t *testing.T) {
	s := &NotificationService{OTPLength: 8}

	code, err := s.GenerateOTP(0)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	code, err = s.GenerateOTP(4)
	require.NoError(t, err)
	assert.Len(t, code, 4)
}

func TestGenerateOTPWithInjectedSource(t *testing.T) {
	s := &NotificationService{OTP: otp.Generator{Rand: bytes.NewReader([]byte{1, 2, 3})}, OTPLength: 3}
	code, err := s.GenerateOTP(0)
	require.NoError(t, err)
	assert.Equal(t, "123", code)
}

func TestEnqueueOrderEvent(t *testing.T) {
	okCounter := observability.Enqueues.WithLabelValues(observability.ResultOK)
	errCounter := observability.Enqueues.WithLabelValues(observability.ResultError)
	okBefore, errBefore := testutil.ToFloat64(okCounter), testutil.ToFloat64(errCounter)

	q := &fakeQueue{}
	s := &NotificationService{Queue: q}
	id, err := s.EnqueueOrderEvent(context.Background(), domain.OrderStatusEvent{OrderID: "1", Status: "shipped"})
	require.NoError(t, err)
	assert.Equal(t, "evt_1", id)
	assert.Len(t, q.events, 1)

	q.err = errors.New("sqs down")
	_, err = s.EnqueueOrderEvent(context.Background(), domain.OrderStatusEvent{OrderID: "1", Status: "shipped"})
	assert.ErrorContains(t, err, "sqs down")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(okCounter))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(errCounter))
}

func TestDisabledBackends(t *testing.T) {
	s := &NotificationService{}
	_, err := s.EnqueueOrderEvent(context.Background(), domain.OrderStatusEvent{})
	assert.ErrorIs(t, err, ErrQueueDisabled)

	_, err = s.ListDeliveries(context.Background(), store.AttemptQuery{})
	assert.ErrorIs(t, err, ErrAuditDisabled)
}
