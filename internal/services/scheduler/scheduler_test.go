package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ewa-delivery/internal/cache"
	"github.com/magabrotheeeer/ewa-delivery/internal/config"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	"github.com/magabrotheeeer/ewa-delivery/internal/services/scheduler"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListDeliveriesOn(ctx context.Context, date time.Time) ([]models.Delivery, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Delivery), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(routingKey, message).Error(0)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) DispatchDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type countingDispatcher struct {
	calls atomic.Int32
}

func (d *countingDispatcher) DispatchDue(context.Context) (int, error) {
	d.calls.Add(1)
	return 0, nil
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{AddressRedis: mr.Addr(), CacheTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func tomorrowDelivery(id string) models.Delivery {
	return models.Delivery{
		ID:            id,
		UserID:        "u1",
		Status:        models.DeliveryScheduled,
		ScheduledDate: time.Now().UTC().AddDate(0, 0, 1),
		Recipient:     models.Recipient{Name: "Jane", Email: "jane@example.com"},
	}
}

func TestRemindTomorrow_OncePerDelivery(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := scheduler.New(repo, newCache(t), pub, new(MockDispatcher), time.Second, nil, newNoopLogger())

	repo.On("ListDeliveriesOn", mock.Anything, mock.Anything).Return([]models.Delivery{tomorrowDelivery("d1"), tomorrowDelivery("d2")}, nil).Twice()
	pub.On("Publish", rabbitmq.RoutingReminder, mock.AnythingOfType("models.DeliveryReminder")).Return(nil).Twice()

	sent, err := svc.RemindTomorrow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	sent, err = svc.RemindTomorrow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	pub.AssertNumberOfCalls(t, "Publish", 2)
}

func TestRemindTomorrow_PublishFailureRetriedNextRun(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := scheduler.New(repo, newCache(t), pub, new(MockDispatcher), time.Second, nil, newNoopLogger())

	repo.On("ListDeliveriesOn", mock.Anything, mock.Anything).Return([]models.Delivery{tomorrowDelivery("d1")}, nil)
	pub.On("Publish", rabbitmq.RoutingReminder, mock.Anything).Return(errors.New("channel closed")).Once()
	pub.On("Publish", rabbitmq.RoutingReminder, mock.Anything).Return(nil).Once()

	sent, err := svc.RemindTomorrow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	sent, err = svc.RemindTomorrow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestRemindTomorrow_RepositoryError(t *testing.T) {
	repo := new(MockRepository)
	pub := new(MockPublisher)
	svc := scheduler.New(repo, newCache(t), pub, new(MockDispatcher), time.Second, nil, newNoopLogger())
	repo.On("ListDeliveriesOn", mock.Anything, mock.Anything).Return(nil, errors.New("db error")).Once()

	_, err := svc.RemindTomorrow(context.Background())
	assert.Error(t, err)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestRun_StopsOnCancel(t *testing.T) {
	repo := new(MockRepository)
	dispatcher := &countingDispatcher{}
	svc := scheduler.New(repo, newCache(t), new(MockPublisher), dispatcher, time.Second, nil, newNoopLogger())
	repo.On("ListDeliveriesOn", mock.Anything, mock.Anything).Return([]models.Delivery{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx, scheduler.Intervals{Reminders: time.Hour, Notifications: 10 * time.Millisecond})
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return dispatcher.calls.Load() >= 2
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
