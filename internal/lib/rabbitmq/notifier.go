package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
)

// EventPublisher публикует сообщение с ключом маршрутизации.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Notifier публикует события в фоне, не задерживая ответ клиенту.
// Ошибка публикации пишется в лог и метрики и вызывающему не возвращается.
type Notifier struct {
	pub     EventPublisher
	timeout time.Duration
	log     *slog.Logger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewNotifier создаёт Notifier. Каждая публикация ограничена timeout.
func NewNotifier(pub EventPublisher, timeout time.Duration, log *slog.Logger, m *metrics.Metrics) *Notifier {
	return &Notifier{
		pub:     pub,
		timeout: timeout,
		log:     log,
		metrics: m,
	}
}

// Notify публикует message в фоне.
func (n *Notifier) Notify(routingKey string, message any) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.pub.Publish(ctx, routingKey, message); err != nil {
			n.log.Error("failed to publish event",
				slog.String("op", "rabbitmq.Notifier.Notify"),
				slog.String("routing_key", routingKey),
				sl.Err(err),
			)
			n.metrics.PublishFailed(routingKey)
		}
	}()
}

// Wait ждёт завершения начатых публикаций.
func (n *Notifier) Wait() {
	n.wg.Wait()
}
