package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/ewa-delivery/internal/migrations"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Идентификаторы справочных данных из миграции 000002_seed.
const (
	seedAdminID      = "00000000-0000-0000-0000-000000000001"
	seedProductID    = "10000000-0000-0000-0000-000000000001"
	seedPlanID       = "20000000-0000-0000-0000-000000000001"
	seedPickupPoint  = "30000000-0000-0000-0000-000000000001"
	seedPickupLocker = "30000000-0000-0000-0000-000000000002"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(storage))

	t.Cleanup(func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	return storage
}

// testDataFactory создаёт связанные записи для интеграционных тестов.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

func (f *testDataFactory) createCustomer(t *testing.T) models.User {
	t.Helper()
	u := models.User{
		Name:         "Test Customer",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "hash",
		Role:         models.RoleCustomer,
	}
	id, err := f.storage.RegisterUser(context.Background(), u)
	require.NoError(t, err)
	u.ID = id
	return u
}

func (f *testDataFactory) createSubscription(t *testing.T, userID string) models.Subscription {
	t.Helper()
	next := time.Now().AddDate(0, 0, 7).Truncate(24 * time.Hour)
	sub := models.Subscription{
		UserID:           userID,
		PlanID:           seedPlanID,
		Status:           models.SubscriptionActive,
		Quantity:         6,
		NextDeliveryDate: &next,
		Address:          "1 Test St",
		Frequency:        models.FrequencyWeekly,
	}
	id, err := f.storage.CreateSubscription(context.Background(), sub)
	require.NoError(t, err)
	sub.ID = id
	return sub
}

func (f *testDataFactory) createDelivery(t *testing.T, user models.User, subscriptionID string, date time.Time) models.Delivery {
	t.Helper()
	d := models.Delivery{
		SubscriptionID:  subscriptionID,
		UserID:          user.ID,
		Status:          models.DeliveryScheduled,
		ScheduledDate:   date,
		EstimatedTime:   "09:00-12:00",
		DeliveryAddress: "1 Test St",
		Recipient:       models.Recipient{Name: user.Name, Email: user.Email, Phone: "+10000000000"},
		Items:           []models.DeliveryItem{{ProductID: seedProductID, Name: "5 Gallon Spring Water", Quantity: 6}},
		MaxAttempts:     3,
	}
	id, err := f.storage.CreateDelivery(context.Background(), d)
	require.NoError(t, err)
	d.ID = id
	return d
}
