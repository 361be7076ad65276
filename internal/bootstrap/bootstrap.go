// Package bootstrap builds the messaging components shared by the api and
// worker binaries from their environment configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"waphone/internal/audit"
	"waphone/internal/config"
	"waphone/internal/dispatch"
	"waphone/internal/phone"
	"waphone/internal/providers"
	"waphone/internal/providers/dialog360"
	"waphone/internal/providers/twilio"
	"waphone/internal/providers/ultramsg"
	"waphone/internal/providers/wati"
	"waphone/internal/secrets"
	"waphone/internal/store/pg"
	"waphone/internal/templates"
)

type Messaging struct {
	Dispatcher *dispatch.Dispatcher
	Normalizer *phone.Normalizer
	Renderer   *templates.Renderer
}

// Senders returns one adapter per provider in chain order. Adapters with
// missing credentials are still registered; they fail at send time.
func Senders(cfg config.ProviderConfig, d secrets.Decrypter) []providers.Sender {
	shared := providers.NewHTTPClient(cfg.HTTPTimeout, false)
	return []providers.Sender{
		&ultramsg.Client{
			InstanceID: cfg.UltraMsgInstanceID,
			Token:      cfg.UltraMsgToken,
			Secrets:    d,
			HTTP:       providers.NewHTTPClient(cfg.HTTPTimeout, cfg.UltraMsgInsecureTLS),
			BaseURL:    cfg.UltraMsgBaseURL,
		},
		&dialog360.Client{
			APIKey:  cfg.Dialog360APIKey,
			Secrets: d,
			HTTP:    shared,
			BaseURL: cfg.Dialog360BaseURL,
		},
		&wati.Client{
			Endpoint: cfg.WatiEndpoint,
			APIKey:   cfg.WatiAPIKey,
			Secrets:  d,
			HTTP:     providers.NewHTTPClient(cfg.HTTPTimeout, cfg.WatiInsecureTLS),
		},
		&twilio.Client{
			AccountSID: cfg.TwilioAccountSID,
			AuthToken:  cfg.TwilioAuthToken,
			FromNumber: cfg.TwilioWhatsAppNumber,
			Secrets:    d,
			HTTP:       shared,
			BaseURL:    cfg.TwilioBaseURL,
		},
	}
}

// NewMessaging wires the dispatcher with its normalizer, renderer and sink.
// An unknown WHATSAPP_PROVIDER is logged here and reported on every send.
func NewMessaging(cfg config.MessagingConfig, sink audit.Sink) (*Messaging, error) {
	dec, err := secrets.New(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("init secrets: %w", err)
	}
	overrides, err := config.LoadTemplates(cfg.OrderTemplatesFile)
	if err != nil {
		return nil, err
	}

	m := &Messaging{
		Normalizer: phone.NewNormalizer(cfg.PhoneMinLength, cfg.PhoneMaxLength, cfg.DefaultCountry, phone.Table()),
		Renderer: &templates.Renderer{
			Overrides:    overrides,
			BusinessName: cfg.BusinessName,
			SupportPhone: cfg.SupportPhone,
		},
	}
	m.Dispatcher = dispatch.New(dispatch.Options{
		Primary:          cfg.Provider,
		OTPExpiryMinutes: cfg.OTPExpiryMinutes,
		Normalizer:       m.Normalizer,
		Renderer:         m.Renderer,
		Audit:            sink,
		Breaker: dispatch.BreakerSettings{
			Failures:    cfg.BreakerFailures,
			OpenTimeout: cfg.BreakerOpenTimeout,
		},
	}, Senders(cfg.ProviderConfig, dec)...)

	if _, err := m.Dispatcher.Primary(); err != nil {
		slog.Error("whatsapp provider misconfigured", "err", err)
	}
	return m, nil
}

// DeliveryLog opens the delivery attempt store when DB_DSN is set. With no
// DSN it returns nils and attempts are only logged.
func DeliveryLog(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, *pg.Store, error) {
	if cfg.DBDSN == "" {
		return nil, nil, nil
	}
	pool, err := pg.NewPool(ctx, cfg.DBDSN, pg.PoolOptions{
		MaxConns:          cfg.DBMaxConns,
		MinConns:          cfg.DBMinConns,
		MaxConnLifetime:   cfg.DBMaxConnLifetime,
		MaxConnIdleTime:   cfg.DBMaxConnIdleTime,
		HealthCheckPeriod: cfg.DBHealthCheck,
	})
	if err != nil {
		return nil, nil, err
	}
	st := pg.New(pool)
	if err := st.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pool, st, nil
}

// Sink combines the log sink with the store when one is configured.
func Sink(st *pg.Store) audit.Sink {
	if st == nil {
		return audit.LogSink{}
	}
	return audit.Multi{audit.LogSink{}, st}
}
