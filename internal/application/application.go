package application

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/config"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/handler"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/notify"
	"github.com/psds-microservice/helpdesk-service/internal/router"
	"github.com/psds-microservice/helpdesk-service/internal/service"
	"github.com/psds-microservice/helpdesk-service/pkg/logger"
	"github.com/rs/zerolog"
)

// API — приложение режима api: HTTP-сервер поверх собранных сервисов.
type API struct {
	cfg      *config.Config
	log      zerolog.Logger
	httpSrv  *http.Server
	producer *kafka.Producer
}

// NewAPI собирает приложение: миграции, база, сервисы, роутер.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel)

	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	producer := kafka.NewProducer(kafka.ParseBrokers(cfg.Kafka.Brokers), cfg.Kafka.Topic, log)
	notifier := notify.NewClient(cfg.NotifyServiceURL, log)

	ticketSvc := service.NewTicketService(db, producer, notifier)
	assetSvc := service.NewAssetService(db, producer)
	stockSvc := service.NewStockService(db, producer)
	auditSvc := service.NewAuditService(db, producer)

	h := router.New(router.Handlers{
		Ticket: handler.NewTicketHandler(ticketSvc),
		Asset:  handler.NewAssetHandler(assetSvc),
		Stock:  handler.NewStockHandler(stockSvc),
		Audit:  handler.NewAuditHandler(auditSvc),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, log: log, httpSrv: httpSrv, producer: producer}, nil
}

// Run запускает HTTP-сервер и блокируется до отмены ctx.
func (a *API) Run(ctx context.Context) error {
	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	a.log.Info().Str("addr", a.httpSrv.Addr).Msg("HTTP server listening")
	a.log.Info().Str("swagger", base+"/swagger").Str("health", base+"/health").Str("api", base+"/api/v1/").Msg("endpoints")

	errCh := make(chan error, 1)
	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := a.producer.Close(); err != nil {
		a.log.Error().Err(err).Msg("kafka: close producer")
	}
	return nil
}
