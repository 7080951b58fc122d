package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

const deliveryColumns = `id, subscription_id, user_id, order_id, delivery_type, pickup_point_id, status,
			      scheduled_date, time_slot_id, estimated_time, delivery_address, recipient, items, driver,
			      attempts, max_attempts, skip_reason, skip_custom_reason, skipped_at,
			      rescheduled_from, rescheduled_to, rescheduled_reason, updated_at`

func scanDelivery(row scanner) (models.Delivery, error) {
	var (
		d                                models.Delivery
		subscriptionID, orderID, pointID sql.NullString
		recipient, items, driver         []byte
		skippedAt, from, to              sql.NullTime
	)
	err := row.Scan(&d.ID, &subscriptionID, &d.UserID, &orderID, &d.DeliveryType, &pointID, &d.Status,
		&d.ScheduledDate, &d.TimeSlotID, &d.EstimatedTime, &d.DeliveryAddress, &recipient, &items, &driver,
		&d.Attempts, &d.MaxAttempts, &d.SkipReason, &d.SkipCustomReason, &skippedAt,
		&from, &to, &d.RescheduledReason, &d.UpdatedAt)
	if err != nil {
		return d, err
	}

	d.SubscriptionID = subscriptionID.String
	d.OrderID = orderID.String
	d.PickupPointID = pointID.String
	d.SkippedAt = timePtr(skippedAt)
	d.RescheduledFrom = timePtr(from)
	d.RescheduledTo = timePtr(to)
	if err := fromJSON(recipient, &d.Recipient); err != nil {
		return d, fmt.Errorf("recipient: %w", err)
	}
	if err := fromJSON(items, &d.Items); err != nil {
		return d, fmt.Errorf("items: %w", err)
	}
	if len(driver) > 0 && string(driver) != "null" {
		d.Driver = &models.Driver{}
		if err := fromJSON(driver, d.Driver); err != nil {
			return d, fmt.Errorf("driver: %w", err)
		}
	}
	return d, nil
}

// CreateDelivery сохраняет доставку и возвращает её ID.
func (s *Storage) CreateDelivery(ctx context.Context, d models.Delivery) (string, error) {
	const op = "storage.CreateDelivery"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	recipient, items, driver, err := deliveryJSON(d)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if d.DeliveryType == "" {
		d.DeliveryType = models.DeliveryTypeHome
	}

	query := `INSERT INTO deliveries (subscription_id, user_id, order_id, delivery_type, pickup_point_id,
			      status, scheduled_date, time_slot_id, estimated_time, delivery_address, recipient, items,
			      driver, attempts, max_attempts)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			  RETURNING id`
	var id string
	err = s.DB.QueryRowContext(ctx, query,
		nullString(d.SubscriptionID), d.UserID, nullString(d.OrderID), d.DeliveryType, nullString(d.PickupPointID),
		d.Status, d.ScheduledDate, d.TimeSlotID, d.EstimatedTime, d.DeliveryAddress, recipient, items,
		driver, d.Attempts, d.MaxAttempts).Scan(&id)
	if err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// GetDelivery возвращает доставку по ID.
func (s *Storage) GetDelivery(ctx context.Context, id string) (*models.Delivery, error) {
	const op = "storage.GetDelivery"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	d, err := scanDelivery(s.DB.QueryRowContext(ctx, `SELECT `+deliveryColumns+` FROM deliveries WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &d, nil
}

// ListDeliveries возвращает доставки пользователя userID, а при пустом userID все.
func (s *Storage) ListDeliveries(ctx context.Context, userID string, limit, offset int) ([]models.Delivery, error) {
	const op = "storage.ListDeliveries"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + deliveryColumns + `
			  FROM deliveries
			  WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
			  ORDER BY scheduled_date, id
			  LIMIT $2 OFFSET $3`
	return s.queryDeliveries(ctx, op, query, nullString(userID), limit, offset)
}

// ListDeliveriesOn возвращает доставки, запланированные на день date
// в статусах scheduled и rescheduled.
func (s *Storage) ListDeliveriesOn(ctx context.Context, date time.Time) ([]models.Delivery, error) {
	const op = "storage.ListDeliveriesOn"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + deliveryColumns + `
			  FROM deliveries
			  WHERE scheduled_date = $1::date AND status IN ('scheduled', 'rescheduled')
			  ORDER BY id`
	return s.queryDeliveries(ctx, op, query, date.Format(time.DateOnly))
}

func (s *Storage) queryDeliveries(ctx context.Context, op, query string, args ...any) ([]models.Delivery, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateDelivery сохраняет изменяемые поля доставки: статус, дату, водителя,
// поля пропуска и переноса, способ получения.
func (s *Storage) UpdateDelivery(ctx context.Context, d models.Delivery) error {
	const op = "storage.UpdateDelivery"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, _, driver, err := deliveryJSON(d)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE deliveries
			  SET status = $1, scheduled_date = $2, time_slot_id = $3, driver = $4, attempts = $5,
			      skip_reason = $6, skip_custom_reason = $7, skipped_at = $8,
			      rescheduled_from = $9, rescheduled_to = $10, rescheduled_reason = $11,
			      delivery_type = $12, pickup_point_id = $13, updated_at = $14
			  WHERE id = $15`
	res, err := s.DB.ExecContext(ctx, query,
		d.Status, d.ScheduledDate, d.TimeSlotID, driver, d.Attempts,
		d.SkipReason, d.SkipCustomReason, nullTime(d.SkippedAt),
		nullTime(d.RescheduledFrom), nullTime(d.RescheduledTo), d.RescheduledReason,
		d.DeliveryType, nullString(d.PickupPointID), d.UpdatedAt, d.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}

func deliveryJSON(d models.Delivery) (recipient, items, driver []byte, err error) {
	if recipient, err = toJSON(d.Recipient); err != nil {
		return nil, nil, nil, err
	}
	list := d.Items
	if list == nil {
		list = []models.DeliveryItem{}
	}
	if items, err = toJSON(list); err != nil {
		return nil, nil, nil, err
	}
	if d.Driver != nil {
		if driver, err = toJSON(d.Driver); err != nil {
			return nil, nil, nil, err
		}
	}
	return recipient, items, driver, nil
}
