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

	"github.com/rs/zerolog"

	"github.com/example/whatsapp-bridge/internal/config"
	"github.com/example/whatsapp-bridge/internal/dispatch"
	"github.com/example/whatsapp-bridge/internal/graph"
	"github.com/example/whatsapp-bridge/internal/kafka/producer"
	kafkapublisher "github.com/example/whatsapp-bridge/internal/kafka/publisher"
	"github.com/example/whatsapp-bridge/internal/logger"
	"github.com/example/whatsapp-bridge/internal/reply"
	"github.com/example/whatsapp-bridge/internal/server"
	"github.com/example/whatsapp-bridge/internal/webhook"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fail("config load", err)
	}

	baseLogger, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		fail("logger init", err)
	}
	log := baseLogger.With().Str("service", "webhook-server").Logger()

	gateway, err := graph.NewClient(graph.Config{
		AccessToken:   cfg.WhatsApp.AccessToken,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		BaseURL:       cfg.WhatsApp.GraphBaseURL,
		APIVersion:    cfg.WhatsApp.APIVersion,
	}, log.With().Str("component", "graph-client").Logger())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise graph client")
	}

	var eventPublisher dispatch.EventPublisher
	if cfg.Kafka.Enabled() {
		kafkaLogger := log.With().Str("component", "kafka").Logger()
		prod, err := producer.New(cfg.Kafka.Brokers, kafkaLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer func() {
			if err := prod.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close kafka producer")
			}
		}()
		eventPublisher = kafkapublisher.NewEventPublisher(prod, cfg.Kafka.EventsTopic, log.With().Str("component", "event-publisher").Logger())
		log.Info().Str("topic", cfg.Kafka.EventsTopic).Msg("dispatch event publishing enabled")
	}

	dispatcher, err := dispatch.New(dispatch.Config{
		SendTimeout: cfg.Dispatch.SendTimeout,
		Concurrency: cfg.Dispatch.Concurrency,
		MarkAsRead:  cfg.Dispatch.MarkAsRead,
	}, dispatch.Dependencies{
		Gateway:   gateway,
		Resolve:   reply.Resolve,
		Publisher: eventPublisher,
		Logger:    log,
		Now:       time.Now,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise dispatcher")
	}

	parser := webhook.NewParser(cfg.WhatsApp.PhoneNumberID)

	handler, err := server.NewHandler(cfg.WhatsApp.VerifyToken, parser, dispatcher, cfg.Server.MaxBodyBytes, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise webhook handler")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           server.Router(handler),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().Int("port", cfg.App.Port).Msg("webhook server started")

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server terminated with error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("dispatcher drain timed out; in-flight sends abandoned")
	}
}

func fail(stage string, err error) {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	logger.Fatal().Err(err).Str("stage", stage).Msg("webhook server init failed")
}
