package delivery_test

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
	"github.com/magabrotheeeer/ewa-delivery/internal/services/delivery"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) GetDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*models.Delivery)
	return d, args.Error(1)
}

func (m *RepoMock) ListDeliveries(ctx context.Context, userID string, limit, offset int) ([]models.Delivery, error) {
	args := m.Called(ctx, userID, limit, offset)
	list, _ := args.Get(0).([]models.Delivery)
	return list, args.Error(1)
}

func (m *RepoMock) UpdateDelivery(ctx context.Context, d models.Delivery) error {
	return m.Called(ctx, d).Error(0)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Notify(routingKey string, message any) {
	m.Called(routingKey, message)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var customer = models.Actor{ID: "u1", Role: models.RoleCustomer}

func scheduled() *models.Delivery {
	return &models.Delivery{
		ID:              "d1",
		UserID:          "u1",
		DeliveryType:    models.DeliveryTypeHome,
		Status:          models.DeliveryScheduled,
		ScheduledDate:   time.Now().UTC().AddDate(0, 0, 2).Truncate(24 * time.Hour),
		EstimatedTime:   "10:00-12:00",
		DeliveryAddress: "ул. Лесная, 5",
		Recipient:       models.Recipient{Name: "Jane", Phone: "+100", Email: "jane@example.com"},
		MaxAttempts:     3,
	}
}

func TestReschedule_PublishesReminder(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := delivery.New(repo, notifier, nil, newNoopLogger())
	newDate := time.Now().UTC().AddDate(0, 0, 5).Format(time.DateOnly)

	repo.On("GetDelivery", mock.Anything, "d1").Return(scheduled(), nil).Once()
	repo.On("UpdateDelivery", mock.Anything, mock.MatchedBy(func(d models.Delivery) bool {
		return d.Status == models.DeliveryRescheduled && d.ScheduledDate.Format(time.DateOnly) == newDate
	})).Return(nil).Once()
	notifier.On("Notify", rabbitmq.RoutingReminder, mock.MatchedBy(func(r models.DeliveryReminder) bool {
		return r.Email == "jane@example.com" && r.Date == newDate && r.Address == "ул. Лесная, 5"
	})).Once()

	got, err := svc.Reschedule(context.Background(), customer, "d1", models.DummyReschedule{NewDate: newDate, Reason: "emergency"})
	require.NoError(t, err)
	assert.Equal(t, models.RescheduleEmergency, got.RescheduledReason)
	require.NotNil(t, got.RescheduledFrom)
	assert.Equal(t, scheduled().ScheduledDate, *got.RescheduledFrom)
	repo.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestReschedule_Rejected(t *testing.T) {
	delivered := scheduled()
	delivered.Status = models.DeliveryDelivered

	tests := []struct {
		name     string
		delivery *models.Delivery
		req      models.DummyReschedule
		wantKind apperr.Kind
	}{
		{
			name:     "bad date format",
			delivery: scheduled(),
			req:      models.DummyReschedule{NewDate: "12/05/2024", Reason: "other"},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "today",
			delivery: scheduled(),
			req:      models.DummyReschedule{NewDate: time.Now().UTC().Format(time.DateOnly), Reason: "other"},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "terminal delivery",
			delivery: delivered,
			req:      models.DummyReschedule{NewDate: time.Now().UTC().AddDate(0, 0, 3).Format(time.DateOnly), Reason: "other"},
			wantKind: apperr.KindConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, notifier := new(RepoMock), new(NotifierMock)
			svc := delivery.New(repo, notifier, nil, newNoopLogger())
			repo.On("GetDelivery", mock.Anything, "d1").Return(tt.delivery, nil).Maybe()

			_, err := svc.Reschedule(context.Background(), customer, "d1", tt.req)
			assert.Equal(t, tt.wantKind, apperr.KindOf(err))
			repo.AssertNotCalled(t, "UpdateDelivery", mock.Anything, mock.Anything)
			notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
		})
	}
}

func TestSkip(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := delivery.New(repo, notifier, nil, newNoopLogger())

	repo.On("GetDelivery", mock.Anything, "d1").Return(scheduled(), nil)
	repo.On("UpdateDelivery", mock.Anything, mock.MatchedBy(func(d models.Delivery) bool {
		return d.Status == models.DeliverySkipped && d.SkipReason == models.SkipOther && d.SkipCustomReason == "moving"
	})).Return(nil).Once()

	_, err := svc.Skip(context.Background(), customer, "d1", models.DummySkip{Reason: "other", CustomReason: "   "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	got, err := svc.Skip(context.Background(), customer, "d1", models.DummySkip{Reason: "other", CustomReason: " moving "})
	require.NoError(t, err)
	assert.NotNil(t, got.SkippedAt)
	notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestSkip_StoreFailure(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := delivery.New(repo, notifier, nil, newNoopLogger())
	repo.On("GetDelivery", mock.Anything, "d1").Return(scheduled(), nil)
	repo.On("UpdateDelivery", mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

	_, err := svc.Skip(context.Background(), customer, "d1", models.DummySkip{Reason: "vacation"})
	assert.Equal(t, apperr.KindMutation, apperr.KindOf(err))
}

func TestSkip_ForeignDelivery(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := delivery.New(repo, notifier, nil, newNoopLogger())
	repo.On("GetDelivery", mock.Anything, "d1").Return(scheduled(), nil)

	_, err := svc.Skip(context.Background(), models.Actor{ID: "u2", Role: models.RoleCustomer}, "d1", models.DummySkip{Reason: "vacation"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDispatch(t *testing.T) {
	repo, notifier := new(RepoMock), new(NotifierMock)
	svc := delivery.New(repo, notifier, nil, newNoopLogger())

	inTransit := scheduled()
	inTransit.Status = models.DeliveryInTransit
	repo.On("GetDelivery", mock.Anything, "d1").Return(inTransit, nil)
	repo.On("UpdateDelivery", mock.Anything, mock.MatchedBy(func(d models.Delivery) bool {
		return d.Status == models.DeliveryFailed && d.Attempts == 1
	})).Return(nil).Once()

	got, err := svc.Dispatch(context.Background(), "d1", models.DummyDispatch{Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Attempts)

	_, err = svc.Dispatch(context.Background(), "d1", models.DummyDispatch{Status: "delivered"})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Dispatch(context.Background(), "d1", models.DummyDispatch{Status: "teleported"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}
