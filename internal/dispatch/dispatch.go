// Package dispatch sends rendered WhatsApp messages through the configured
// provider and makes at most one fallback hop along providers.Chain.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"waphone/internal/audit"
	"waphone/internal/domain"
	"waphone/internal/observability"
	"waphone/internal/phone"
	"waphone/internal/providers"
	"waphone/internal/templates"
	"waphone/internal/util"
)

const DefaultOTPExpiryMinutes = 5

// BreakerSettings enables a circuit breaker per provider when Failures > 0.
// An open breaker fails the attempt without a network call, so the fallback
// hop happens immediately.
type BreakerSettings struct {
	Failures    uint32
	OpenTimeout time.Duration
}

type Options struct {
	// Primary is the configured provider name. Anything outside
	// providers.Chain is a configuration error.
	Primary          string
	OTPExpiryMinutes int
	Normalizer       *phone.Normalizer
	Renderer         *templates.Renderer
	Audit            audit.Sink
	Breaker          BreakerSettings
	NewID            func() string
	Now              func() time.Time
}

type Dispatcher struct {
	primary    string
	expiry     int
	normalizer *phone.Normalizer
	renderer   *templates.Renderer
	sink       audit.Sink
	senders    map[providers.Name]providers.Sender
	breakers   map[providers.Name]*gobreaker.CircuitBreaker
	newID      func() string
	now        func() time.Time
}

func New(opts Options, senders ...providers.Sender) *Dispatcher {
	d := &Dispatcher{
		primary:    opts.Primary,
		expiry:     opts.OTPExpiryMinutes,
		normalizer: opts.Normalizer,
		renderer:   opts.Renderer,
		sink:       opts.Audit,
		senders:    make(map[providers.Name]providers.Sender, len(senders)),
		breakers:   make(map[providers.Name]*gobreaker.CircuitBreaker, len(senders)),
		newID:      opts.NewID,
		now:        opts.Now,
	}
	if d.expiry <= 0 {
		d.expiry = DefaultOTPExpiryMinutes
	}
	if d.renderer == nil {
		d.renderer = &templates.Renderer{}
	}
	if d.sink == nil {
		d.sink = audit.Discard{}
	}
	if d.newID == nil {
		d.newID = util.NewMessageID
	}
	if d.now == nil {
		d.now = util.NowUTC
	}
	for _, s := range senders {
		d.senders[s.Name()] = s
		if opts.Breaker.Failures > 0 {
			d.breakers[s.Name()] = newBreaker(string(s.Name()), opts.Breaker)
		}
	}
	return d
}

func newBreaker(name string, s BreakerSettings) *gobreaker.CircuitBreaker {
	timeout := s.OpenTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	threshold := s.Failures
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= threshold },
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("provider breaker state change", "provider", name, "from", from.String(), "to", to.String())
		},
	})
}

// Primary returns the configured primary provider, or a configuration error.
func (d *Dispatcher) Primary() (providers.Name, error) {
	name, ok := providers.Parse(d.primary)
	if !ok {
		return "", fmt.Errorf("%w: unknown whatsapp provider %q", domain.ErrConfiguration, d.primary)
	}
	if _, ok := d.senders[name]; !ok {
		return "", fmt.Errorf("%w: provider %q has no adapter", domain.ErrConfiguration, name)
	}
	return name, nil
}

// SendOTP delivers an OTP code using the wording for purpose.
func (d *Dispatcher) SendOTP(ctx context.Context, to, code, purpose string) (domain.DeliveryResult, error) {
	if strings.TrimSpace(code) == "" {
		return domain.DeliveryResult{}, domain.ErrEmptyCode
	}
	dest, err := d.destination(to)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	return d.Send(ctx, domain.OutboundMessage{
		ID:               d.newID(),
		DestinationPhone: dest,
		Body:             templates.OTPMessage(code, purpose, d.expiry),
		Kind:             domain.KindOTP,
		Context:          map[string]string{"purpose": purpose},
	})
}

// SendOrderStatus renders the template for status with vars and delivers it.
func (d *Dispatcher) SendOrderStatus(ctx context.Context, to string, vars map[string]string, status string) (domain.DeliveryResult, error) {
	dest, err := d.destination(to)
	if err != nil {
		return domain.DeliveryResult{}, err
	}
	return d.Send(ctx, domain.OutboundMessage{
		ID:               d.newID(),
		DestinationPhone: dest,
		Body:             d.renderer.Render(status, vars),
		Kind:             domain.KindOrderStatus,
		Context:          vars,
	})
}

func (d *Dispatcher) destination(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: phone number is empty", domain.ErrValidation)
	}
	if d.normalizer == nil {
		return raw, nil
	}
	return d.normalizer.Normalize(raw)
}

// Send delivers an already rendered message. Delivery failures are reported in
// the result; only configuration errors are returned.
func (d *Dispatcher) Send(ctx context.Context, msg domain.OutboundMessage) (domain.DeliveryResult, error) {
	primary, err := d.Primary()
	if err != nil {
		observability.Notifications.WithLabelValues(string(msg.Kind), observability.ResultError).Inc()
		return domain.DeliveryResult{}, err
	}

	out := d.attempt(ctx, primary, msg, false)
	used := primary
	if !out.Success {
		if next, ok := providers.Next(primary); ok {
			if _, registered := d.senders[next]; registered {
				slog.Info("falling back to next provider", "message_id", msg.ID, "from", primary, "to", next)
				observability.Fallbacks.WithLabelValues(string(primary), string(next)).Inc()
				out = d.attempt(ctx, next, msg, true)
				used = next
			} else {
				slog.Warn("fallback provider has no adapter", "message_id", msg.ID, "provider", next)
			}
		}
	}

	res := domain.DeliveryResult{Succeeded: out.Success, ProviderUsed: string(used), RawResponse: out.Raw}
	result := observability.ResultOK
	if !out.Success {
		result = observability.ResultFailed
		res.ErrorDetail = errDetail(out.Err)
	}
	observability.Notifications.WithLabelValues(string(msg.Kind), result).Inc()
	return res, nil
}

func (d *Dispatcher) attempt(ctx context.Context, name providers.Name, msg domain.OutboundMessage, fallback bool) providers.Outcome {
	start := time.Now()
	out := d.call(ctx, d.senders[name], msg.DestinationPhone, msg.Body)
	observability.ProviderLatency.WithLabelValues(string(name)).Observe(time.Since(start).Seconds())

	entry := audit.Entry{
		MessageID: msg.ID,
		Phone:     msg.DestinationPhone,
		Provider:  string(name),
		Kind:      msg.Kind,
		Body:      msg.Body,
		Status:    audit.StatusSuccess,
		Fallback:  fallback,
		At:        d.now(),
	}
	if out.Success {
		observability.ProviderSend.WithLabelValues(string(name), observability.ResultOK).Inc()
	} else {
		observability.ProviderSend.WithLabelValues(string(name), observability.ResultFailed).Inc()
		entry.Status = audit.StatusFailed
		entry.Detail = errDetail(out.Err)
		level := slog.LevelWarn
		if providers.IsCredentialError(out.Err) {
			// No request was made; the provider is misconfigured, not failing.
			level = slog.LevelError
		}
		slog.Log(ctx, level, "provider send failed",
			"message_id", msg.ID,
			"provider", name,
			"phone", util.MaskPhone(msg.DestinationPhone),
			"fallback", fallback,
			"err", out.Err,
		)
	}
	if err := d.sink.Record(ctx, entry); err != nil {
		slog.Error("audit record failed", "err", err, "message_id", msg.ID, "provider", name)
	}
	return out
}

// call runs one adapter call. A panic inside the adapter is converted into a
// failed outcome so the fallback hop still happens.
func (d *Dispatcher) call(ctx context.Context, s providers.Sender, to, body string) (out providers.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = providers.Failed(fmt.Errorf("%w: adapter panic: %v", domain.ErrTransport, r))
		}
	}()

	cb := d.breakers[s.Name()]
	if cb == nil {
		return s.Send(ctx, to, body)
	}
	res, err := cb.Execute(func() (interface{}, error) {
		o := s.Send(ctx, to, body)
		if !o.Success {
			return o, o.Err
		}
		return o, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return providers.Failed(fmt.Errorf("%w: %s circuit: %v", domain.ErrTransport, s.Name(), err))
	}
	o, _ := res.(providers.Outcome)
	return o
}

func errDetail(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
