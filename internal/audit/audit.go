// Package audit records every provider attempt made by the dispatcher.
package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"waphone/internal/domain"
	"waphone/internal/util"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Entry describes one adapter call. Body holds the rendered message and may
// contain an OTP code; sinks that write to shared logs must not emit it.
type Entry struct {
	MessageID string
	Phone     string
	Provider  string
	Kind      domain.MessageKind
	Body      string
	Status    string
	Detail    string
	Fallback  bool
	At        time.Time
}

type Sink interface {
	Record(ctx context.Context, e Entry) error
}

// LogSink writes entries through slog without the message body. Phones are
// masked and Detail is only written for failed attempts.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Record(ctx context.Context, e Entry) error {
	l := s.Logger
	if l == nil {
		l = slog.Default()
	}
	attrs := []slog.Attr{
		slog.String("message_id", e.MessageID),
		slog.String("provider", e.Provider),
		slog.String("phone", util.MaskPhone(e.Phone)),
		slog.String("kind", string(e.Kind)),
		slog.String("status", e.Status),
		slog.Bool("fallback", e.Fallback),
	}
	level := slog.LevelInfo
	if e.Status != StatusSuccess {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("detail", e.Detail))
	}
	l.LogAttrs(ctx, level, "delivery attempt", attrs...)
	return nil
}

// Multi fans an entry out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }
