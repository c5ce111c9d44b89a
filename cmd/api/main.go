package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcclellann/studentLoan/pkg/config"
	"github.com/mcclellann/studentLoan/pkg/events"
	"github.com/mcclellann/studentLoan/pkg/ledger"
	"github.com/mcclellann/studentLoan/pkg/report"
	"github.com/mcclellann/studentLoan/pkg/scheduler"
	"github.com/mcclellann/studentLoan/pkg/store"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	storage, err := store.Open(cfg.DBDriver, cfg.DBDSN, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize %s store: %v", cfg.DBDriver, err)
	}
	defer storage.Close()

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		logger.WithField("topic", cfg.KafkaTopic).Info("Publishing payment events to Kafka")
	}
	defer publisher.Close()

	l := ledger.NewLedger(storage,
		ledger.WithPolicy(ledger.Policy{MinimumPayment: cfg.MinPayment, MinimumInclusive: cfg.MinPaymentInclusive}),
		ledger.WithPublisher(publisher),
		ledger.WithLogger(logger),
	)
	server := NewServer(storage, l, logger)

	if cfg.ReportDigestSchedule != "" {
		digest, err := scheduler.NewDigest(cfg.ReportDigestSchedule, report.NewReporter(storage, logger), logger)
		if err != nil {
			logger.Fatalf("Failed to schedule payment digest: %v", err)
		}
		digest.Start()
		defer digest.Stop()
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Infof("Server starting on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("Server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}
