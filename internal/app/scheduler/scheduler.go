// Package scheduler собирает процесс периодических задач: напоминания
// о завтрашних доставках и отправку запланированных рассылок.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/config"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	notificationservice "github.com/magabrotheeeer/ewa-delivery/internal/services/notification"
	schedulerservice "github.com/magabrotheeeer/ewa-delivery/internal/services/scheduler"
	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	schedulerService *schedulerservice.Service
	intervals        schedulerservice.Intervals
	notifier         *rabbitmq.Notifier
	metricsServer    *http.Server
	db               *repository.Storage
	cache            *cache.Cache
	conn             *amqp.Connection
	ch               *amqp.Channel
	logger           *slog.Logger
}

func waitForDB(db *repository.Storage) error {
	for range 10 {
		err := repository.CheckDatabaseReady(db)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return errors.New("database not ready after retries")
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}

	// Схему применяет API, планировщик только ждёт её.
	if err := waitForDB(db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	publisher := rabbitmq.NewPublisher(ch)
	notifier := rabbitmq.NewNotifier(publisher, cfg.ClientTimeout, logger, m)
	notifications := notificationservice.New(db, notifier, m, logger)
	schedulerService := schedulerservice.New(db, cacheRedis, publisher, notifications, cfg.ClientTimeout, m, logger)

	return &App{
		schedulerService: schedulerService,
		intervals: schedulerservice.Intervals{
			Reminders:     cfg.ReminderInterval,
			Notifications: cfg.NotificationInterval,
		},
		notifier: notifier,
		metricsServer: &http.Server{
			Addr:              cfg.AddressHTTP,
			Handler:           promhttp.Handler(),
			ReadHeaderTimeout: cfg.TimeoutHTTP,
		},
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
		logger: logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metricsServer.Addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", sl.Err(err))
		}
	}()

	a.schedulerService.Run(ctx, a.intervals)

	a.logger.Info("shutting down scheduler service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}

	a.notifier.Wait()
	closeResources(a.ch, a.conn, a.logger)
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
