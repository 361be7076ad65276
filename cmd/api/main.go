package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"waphone/internal/awsutil"
	"waphone/internal/bootstrap"
	"waphone/internal/config"
	"waphone/internal/httpapi"
	"waphone/internal/logging"
	"waphone/internal/observability"
	sqsqueue "waphone/internal/queue/sqs"
	"waphone/internal/service"
)

func main() {
	cfg := config.LoadAPI()
	logging.Init("api", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	observability.Register(reg)

	startupCtx, startupCancel := context.WithTimeout(ctx, 10*time.Second)
	db, st, err := bootstrap.DeliveryLog(startupCtx, cfg.DBConfig)
	startupCancel()
	if err != nil {
		slog.Error("api db init failed", "err", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	msg, err := bootstrap.NewMessaging(cfg.MessagingConfig, bootstrap.Sink(st))
	if err != nil {
		slog.Error("api messaging init failed", "err", err)
		os.Exit(1)
	}

	svc := &service.NotificationService{
		Dispatch:  msg.Dispatcher,
		OTPLength: cfg.OTPLength,
	}
	if st != nil {
		svc.Attempts = st
	}
	if cfg.SQSQueueURL != "" {
		sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
		if err != nil {
			slog.Error("api sqs client init failed", "err", err)
			os.Exit(1)
		}
		svc.Queue = &sqsqueue.Producer{SQS: sqsClient, QueueURL: cfg.SQSQueueURL}
	}

	var checks []httpapi.ReadyzCheck
	if db != nil {
		checks = append(checks, httpapi.ReadyzCheck{Name: "postgres", Check: st.Ping})
	}
	checks = append(checks, httpapi.ReadyzCheck{Name: "provider", Check: func(context.Context) error {
		_, err := msg.Dispatcher.Primary()
		return err
	}})

	s := httpapi.New(2*time.Second, checks...)
	api := &httpapi.API{
		Svc:        svc,
		Normalizer: msg.Normalizer,
		Codes:      msg.Normalizer.Codes,
		Renderer:   msg.Renderer,
	}
	api.Register(s.Router)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           httpapi.MetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("api metrics listening", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("api metrics server failed", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("api shutdown", "signal", sig.String())
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		_ = srv.Shutdown(shutdownCtx)
	}()

	slog.Info("api listening", "port", cfg.Port, "provider", cfg.Provider)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("api server failed", "err", err)
		os.Exit(1)
	}
}
