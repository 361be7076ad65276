package service

import (
	"context"
	"errors"
	"fmt"

	"waphone/internal/domain"
	"waphone/internal/observability"
	"waphone/internal/otp"
	"waphone/internal/store"
)

var (
	ErrQueueDisabled = errors.New("order event queue not configured")
	ErrAuditDisabled = errors.New("delivery log not configured")
)

type Dispatcher interface {
	SendOTP(ctx context.Context, phone, code, purpose string) (domain.DeliveryResult, error)
	SendOrderStatus(ctx context.Context, phone string, vars map[string]string, status string) (domain.DeliveryResult, error)
}

type Queue interface {
	EnqueueOrderEvent(ctx context.Context, ev domain.OrderStatusEvent) (string, error)
}

type AttemptLister interface {
	ListAttempts(ctx context.Context, q store.AttemptQuery) ([]store.DeliveryAttempt, error)
}

type NotificationService struct {
	Dispatch  Dispatcher
	Queue     Queue
	Attempts  AttemptLister
	OTP       otp.Generator
	OTPLength int
}

func (s *NotificationService) GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = s.OTPLength
	}
	return s.OTP.Generate(length)
}

func (s *NotificationService) SendOTP(ctx context.Context, req domain.SendOTPRequest) (domain.DeliveryResult, error) {
	return s.Dispatch.SendOTP(ctx, req.Phone, req.Code, req.Purpose)
}

func (s *NotificationService) NotifyOrderStatus(ctx context.Context, req domain.OrderStatusNotificationRequest) (domain.DeliveryResult, error) {
	return s.Dispatch.SendOrderStatus(ctx, req.Phone, req.Context, req.Status)
}

func (s *NotificationService) EnqueueOrderEvent(ctx context.Context, ev domain.OrderStatusEvent) (string, error) {
	if s.Queue == nil {
		return "", ErrQueueDisabled
	}
	id, err := s.Queue.EnqueueOrderEvent(ctx, ev)
	if err != nil {
		observability.Enqueues.WithLabelValues(observability.ResultError).Inc()
		return "", fmt.Errorf("enqueue order event: %w", err)
	}
	observability.Enqueues.WithLabelValues(observability.ResultOK).Inc()
	return id, nil
}

func (s *NotificationService) ListDeliveries(ctx context.Context, q store.AttemptQuery) ([]store.DeliveryAttempt, error) {
	if s.Attempts == nil {
		return nil, ErrAuditDisabled
	}
	return s.Attempts.ListAttempts(ctx, q)
}
