package ewaapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/config"
	grpcserver "github.com/magabrotheeeer/ewa-delivery/internal/grpc/server"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/handlers/health"
	"github.com/magabrotheeeer/ewa-delivery/internal/http/middlewarectx"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/jwt"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/session"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/migrations"
	authservice "github.com/magabrotheeeer/ewa-delivery/internal/services/auth"
	catalogservice "github.com/magabrotheeeer/ewa-delivery/internal/services/catalog"
	deliveryservice "github.com/magabrotheeeer/ewa-delivery/internal/services/delivery"
	notificationservice "github.com/magabrotheeeer/ewa-delivery/internal/services/notification"
	pickupservice "github.com/magabrotheeeer/ewa-delivery/internal/services/pickup"
	staffservice "github.com/magabrotheeeer/ewa-delivery/internal/services/staff"
	subscriptionservice "github.com/magabrotheeeer/ewa-delivery/internal/services/subscription"
	ticketservice "github.com/magabrotheeeer/ewa-delivery/internal/services/ticket"
	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP API вместе с gRPC health-сервером.
type App struct {
	server      *http.Server
	health      *grpcserver.HealthServer
	grpcAddress string
	probeEvery  time.Duration
	logger      *slog.Logger
	db          *repository.Storage
	cache       *cache.Cache
	conn        *amqp.Connection
	ch          *amqp.Channel
	notifier    *rabbitmq.Notifier
}

// brokerPinger отдаёт состояние соединения с брокером.
type brokerPinger struct {
	conn *amqp.Connection
}

func (b brokerPinger) Ping(context.Context) error {
	if b.conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

// New поднимает зависимости, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	notifier := rabbitmq.NewNotifier(rabbitmq.NewPublisher(ch), cfg.ClientTimeout, logger, m)
	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	sessions := session.NewStore(cacheRedis, logger)

	services := Services{
		Auth:         authservice.New(db, sessions, jwtMaker, logger),
		Catalog:      catalogservice.New(db, cacheRedis, logger),
		Subscription: subscriptionservice.New(db, cacheRedis, m, logger),
		Delivery:     deliveryservice.New(db, notifier, m, logger),
		Pickup:       pickupservice.New(db, notifier, logger),
		Ticket:       ticketservice.New(db, m, logger),
		Notification: notificationservice.New(db, notifier, m, logger),
		Staff:        staffservice.New(db, logger),
		Health: map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
			"rabbitmq": brokerPinger{conn: conn},
		},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services, RouteOptions{
		RequestTimeout: cfg.RequestTimeout,
		RateLimiter:    middlewarectx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger),
		Metrics:        m,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	checks := make(map[string]grpcserver.Checker, len(services.Health))
	for name, p := range services.Health {
		checks[name] = p
	}

	return &App{
		server:      srv,
		health:      grpcserver.NewHealthServer(checks, logger),
		grpcAddress: cfg.AddressGRPC,
		probeEvery:  cfg.ProbeInterval,
		logger:      logger,
		db:          db,
		cache:       cacheRedis,
		conn:        conn,
		ch:          ch,
		notifier:    notifier,
	}, nil
}

// Run обслуживает HTTP и gRPC до отмены ctx, затем корректно останавливается.
func (a *App) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", a.grpcAddress)
	if err != nil {
		return fmt.Errorf("failed to listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	healthCtx, stopHealth := context.WithCancel(ctx)
	defer stopHealth()
	go func() {
		if err := a.health.Serve(healthCtx, lis, a.probeEvery); err != nil {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	stopHealth()
	a.notifier.Wait()
	a.close()
	return runErr
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close cache", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
