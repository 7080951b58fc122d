package notification_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	"github.com/magabrotheeeer/ewa-delivery/internal/services/notification"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*models.Notification)
	return n, args.Error(1)
}

func (m *RepoMock) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *RepoMock) ListDueNotifications(ctx context.Context, now time.Time) ([]models.Notification, error) {
	args := m.Called(ctx, now)
	list, _ := args.Get(0).([]models.Notification)
	return list, args.Error(1)
}

func (m *RepoMock) UpdateNotification(ctx context.Context, n models.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *RepoMock) ListCustomerEmails(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]string)
	return list, args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(routingKey string, message any) {
	m.Called(routingKey, message)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestCreate(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())

	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Status == models.NotificationDraft && n.ScheduledDate == nil
	})).Return("n1", nil).Once()
	draft, err := svc.Create(context.Background(), models.DummyNotification{Title: "Summer", Message: "Stay hydrated", Type: "email"})
	require.NoError(t, err)
	assert.Equal(t, "n1", draft.ID)

	at := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
	repo.On("CreateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Status == models.NotificationScheduled && n.ScheduledDate.Equal(at)
	})).Return("n2", nil).Once()
	scheduled, err := svc.Create(context.Background(), models.DummyNotification{Title: "Promo", Message: "-10%", Type: "push", ScheduledDate: at.Format(time.RFC3339)})
	require.NoError(t, err)
	assert.Equal(t, models.NotificationScheduled, scheduled.Status)

	_, err = svc.Create(context.Background(), models.DummyNotification{Title: "Old", Message: "x", Type: "sms", ScheduledDate: "2000-01-01T00:00:00Z"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestSendNow_PublishesEventWithRecipients(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())

	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Title: "Summer", Type: models.NotificationEmail, Status: models.NotificationDraft}, nil).Once()
	repo.On("UpdateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Status == models.NotificationSent && n.SentDate != nil && *n.OpenRate == 0 && *n.ClickRate == 0
	})).Return(nil).Once()
	repo.On("ListCustomerEmails", mock.Anything).Return([]string{"a@example.com", "b@example.com"}, nil).Once()
	notifier.On("Notify", rabbitmq.RoutingNotificationSent, mock.MatchedBy(func(e models.NotificationSentEvent) bool {
		return e.NotificationID == "n1" && len(e.Recipients) == 2
	})).Once()

	got, err := svc.SendNow(context.Background(), "n1")
	require.NoError(t, err)
	assert.Equal(t, models.NotificationSent, got.Status)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestSendNow_RecipientsFailureKeepsDraft(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())

	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Type: models.NotificationEmail, Status: models.NotificationDraft}, nil).Once()
	repo.On("ListCustomerEmails", mock.Anything).Return(nil, errors.New("db down")).Once()

	got, err := svc.SendNow(context.Background(), "n1")
	assert.Nil(t, got)
	assert.Equal(t, apperr.KindFetch, apperr.KindOf(err))
	repo.AssertNotCalled(t, "UpdateNotification", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSendNow_NoUnsend(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())
	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Status: models.NotificationSent}, nil).Once()

	_, err := svc.SendNow(context.Background(), "n1")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	repo.AssertNotCalled(t, "UpdateNotification", mock.Anything, mock.Anything)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestDispatchDue(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())

	repo.On("ListDueNotifications", mock.Anything, mock.Anything).Return([]models.Notification{{ID: "n1"}, {ID: "n2"}}, nil).Once()
	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Type: models.NotificationPush, Status: models.NotificationScheduled}, nil).Once()
	repo.On("GetNotification", mock.Anything, "n2").Return(nil, errors.New("db down")).Once()
	repo.On("UpdateNotification", mock.Anything, mock.Anything).Return(nil).Once()
	notifier.On("Notify", rabbitmq.RoutingNotificationSent, mock.Anything).Once()

	sent, err := svc.DispatchDue(context.Background())
	assert.Equal(t, 1, sent)
	assert.Error(t, err)
	repo.AssertNotCalled(t, "ListCustomerEmails", mock.Anything)
}

func TestSchedule(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())
	at := time.Now().UTC().Add(time.Hour).Truncate(time.Second)

	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Status: models.NotificationDraft}, nil).Once()
	repo.On("UpdateNotification", mock.Anything, mock.MatchedBy(func(n models.Notification) bool {
		return n.Status == models.NotificationScheduled && n.ScheduledDate.Equal(at)
	})).Return(nil).Once()

	got, err := svc.Schedule(context.Background(), "n1", at.Format(time.RFC3339))
	require.NoError(t, err)
	assert.Equal(t, models.NotificationScheduled, got.Status)

	_, err = svc.Schedule(context.Background(), "n1", "tomorrow")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	repo.AssertExpectations(t)
}

func TestUpdate_RejectsSent(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := notification.New(repo, notifier, nil, newNoopLogger())
	repo.On("GetNotification", mock.Anything, "n1").Return(&models.Notification{ID: "n1", Status: models.NotificationSent}, nil).Once()

	_, err := svc.Update(context.Background(), "n1", models.DummyNotification{Title: "t", Message: "m", Type: "email"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	repo.AssertNotCalled(t, "UpdateNotification", mock.Anything, mock.Anything)
}
