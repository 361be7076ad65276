package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/prometheus/client_golang/prometheus"

	"waphone/internal/awsutil"
	"waphone/internal/bootstrap"
	"waphone/internal/config"
	"waphone/internal/httpapi"
	"waphone/internal/logging"
	"waphone/internal/observability"
	"waphone/internal/orders"
	sqsqueue "waphone/internal/queue/sqs"
	workerproc "waphone/internal/worker"
)

func main() {
	cfg := config.LoadWorker()
	logging.Init("worker", cfg.LogFormat, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())

	reg := prometheus.NewRegistry()
	observability.Register(reg)

	startupCtx, startupCancel := context.WithTimeout(ctx, 10*time.Second)
	defer startupCancel()

	db, st, err := bootstrap.DeliveryLog(startupCtx, cfg.DBConfig)
	if err != nil {
		slog.Error("worker db init failed", "err", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	sqsClient, err := awsutil.NewSQSClient(ctx, cfg.AWSRegion, cfg.LocalstackEndpoint)
	if err != nil {
		slog.Error("worker sqs client init failed", "err", err)
		os.Exit(1)
	}
	queueReachable := func(c context.Context) error {
		_, err := sqsClient.GetQueueAttributes(c, &sqs.GetQueueAttributesInput{
			QueueUrl:       &cfg.SQSQueueURL,
			AttributeNames: []types.QueueAttributeName{types.QueueAttributeNameQueueArn},
		})
		return err
	}
	if err := queueReachable(startupCtx); err != nil {
		slog.Error("sqs not reachable", "err", err)
		os.Exit(1)
	}

	msg, err := bootstrap.NewMessaging(cfg.MessagingConfig, bootstrap.Sink(st))
	if err != nil {
		slog.Error("worker messaging init failed", "err", err)
		os.Exit(1)
	}

	handler := orders.NewHandler(orders.Deps{
		Notifier:   msg.Dispatcher,
		Normalizer: msg.Normalizer,
		Links:      orders.URLLinkBuilder{BaseURL: cfg.OrderLinkBaseURL},
		Enabled:    cfg.StatusEnabled,
	})
	processor := &workerproc.Processor{
		Orders: handler,
		// Two provider calls with their HTTP timeouts, plus slack.
		Timeout: 2*cfg.HTTPTimeout + 5*time.Second,
	}

	consumer := &sqsqueue.Consumer{
		SQS: sqsClient, QueueURL: cfg.SQSQueueURL,
		WaitTimeSeconds:   cfg.SQSWaitTime,
		MaxMessages:       cfg.SQSMaxMsgs,
		VisibilityTimeout: cfg.SQSVizTimeout,
	}

	// health server (liveness + readiness)
	checks := []httpapi.ReadyzCheck{{Name: "sqs", Check: queueReachable}}
	if st != nil {
		checks = append(checks, httpapi.ReadyzCheck{Name: "postgres", Check: st.Ping})
	}
	health := httpapi.New(2*time.Second, checks...)
	healthSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           health.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	metricsSrv := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           httpapi.MetricsHandler(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}

	healthErrCh := make(chan error, 2)
	go func() {
		slog.Info("worker health listening", "port", cfg.Port)
		healthErrCh <- healthSrv.ListenAndServe()
	}()
	go func() {
		slog.Info("worker metrics listening", "port", cfg.MetricsPort)
		healthErrCh <- metricsSrv.ListenAndServe()
	}()

	pollErrCh := make(chan error, 1)
	go func() {
		slog.Info("worker starting poll", "queue_url", cfg.SQSQueueURL, "concurrency", cfg.WorkerConcurrency)
		pollErrCh <- consumer.PollConcurrent(ctx, cfg.WorkerConcurrency, processor.Process)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-pollErrCh:
		if err != nil && err != context.Canceled {
			slog.Error("worker poll failed", "err", err)
			os.Exit(1)
		}
	case err := <-healthErrCh:
		if err != nil && err != http.ErrServerClosed {
			slog.Error("worker health server failed", "err", err)
			os.Exit(1)
		}
	case sig := <-sigCh:
		slog.Info("worker shutdown", "signal", sig.String())
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)

	select {
	case <-pollErrCh:
	case <-time.After(10 * time.Second):
		slog.Info("worker shutdown timeout waiting for poll loop")
	}
}
