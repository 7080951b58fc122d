package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

const subscriptionColumns = `id, user_id, plan_id, status, quantity, next_delivery_date,
			      address, frequency, created_at, updated_at`

func scanSubscription(row scanner) (models.Subscription, error) {
	var (
		sub  models.Subscription
		next sql.NullTime
	)
	err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.Quantity, &next,
		&sub.Address, &sub.Frequency, &sub.CreatedAt, &sub.UpdatedAt)
	sub.NextDeliveryDate = timePtr(next)
	return sub, err
}

// CreateSubscription сохраняет подписку и возвращает её ID.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) (string, error) {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO subscriptions (user_id, plan_id, status, quantity, next_delivery_date,
			      address, frequency)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var id string
	err := s.DB.QueryRowContext(ctx, query, sub.UserID, sub.PlanID, sub.Status, sub.Quantity,
		nullTime(sub.NextDeliveryDate), sub.Address, sub.Frequency).Scan(&id)
	if err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// GetSubscription возвращает подписку по ID.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &sub, nil
}

// ListSubscriptions возвращает подписки пользователя userID,
// а при пустом userID все подписки.
func (s *Storage) ListSubscriptions(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, error) {
	const op = "storage.ListSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + subscriptionColumns + `
			  FROM subscriptions
			  WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
			  ORDER BY created_at, id
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, nullString(userID), limit, offset)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateSubscriptionStatus меняет статус подписки.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus, updatedAt time.Time) error {
	const op = "storage.UpdateSubscriptionStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}

// ListOneOffOrders возвращает разовые заказы пользователя.
func (s *Storage) ListOneOffOrders(ctx context.Context, userID string) ([]models.OneOffOrder, error) {
	const op = "storage.ListOneOffOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_id, product_id, quantity, total, status, created_at
			  FROM one_off_orders
			  WHERE user_id = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.OneOffOrder
	for rows.Next() {
		var o models.OneOffOrder
		if err := rows.Scan(&o.ID, &o.UserID, &o.ProductID, &o.Quantity, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
