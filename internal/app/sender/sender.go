// Package sender собирает процесс, который разбирает очереди уведомлений
// и отправляет письма через SMTP.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/ewa-delivery/internal/config"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/ewa-delivery/internal/services/sender"
)

// App представляет приложение отправителя.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает новый экземпляр приложения отправителя.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.New(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очереди и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	reminders, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueReminders, a.senderService.HandleReminder)
	if err != nil {
		a.logger.Error("failed to start reminders consumer", sl.Err(err))
		return err
	}

	notifications, err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueNotificationsSent, a.senderService.HandleNotificationSent)
	if err != nil {
		a.logger.Error("failed to start notifications consumer", sl.Err(err))
		<-reminders
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	// обработчики должны успеть подтвердить сообщения до закрытия канала
	<-reminders
	<-notifications

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
