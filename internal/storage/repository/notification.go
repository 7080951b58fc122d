package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

const notificationColumns = `id, title, message, type, status, recipients, scheduled_date, sent_date,
			      open_rate, click_rate, created_at`

func scanNotification(row scanner) (models.Notification, error) {
	var (
		n                   models.Notification
		scheduled, sent     sql.NullTime
		openRate, clickRate sql.NullFloat64
	)
	err := row.Scan(&n.ID, &n.Title, &n.Message, &n.Type, &n.Status, &n.Recipients, &scheduled, &sent,
		&openRate, &clickRate, &n.CreatedAt)
	n.ScheduledDate = timePtr(scheduled)
	n.SentDate = timePtr(sent)
	n.OpenRate = floatPtr(openRate)
	n.ClickRate = floatPtr(clickRate)
	return n, err
}

// CreateNotification сохраняет рассылку и возвращает её ID.
func (s *Storage) CreateNotification(ctx context.Context, n models.Notification) (string, error) {
	const op = "storage.CreateNotification"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO notifications (title, message, type, status, recipients, scheduled_date, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id`
	var id string
	if err := s.DB.QueryRowContext(ctx, query,
		n.Title, n.Message, n.Type, n.Status, n.Recipients, nullTime(n.ScheduledDate), n.CreatedAt).Scan(&id); err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// GetNotification возвращает рассылку по ID.
func (s *Storage) GetNotification(ctx context.Context, id string) (*models.Notification, error) {
	const op = "storage.GetNotification"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	n, err := scanNotification(s.DB.QueryRowContext(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &n, nil
}

// ListNotifications возвращает все рассылки, новые первыми.
func (s *Storage) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	const op = "storage.ListNotifications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	return s.queryNotifications(ctx, op, `SELECT `+notificationColumns+` FROM notifications ORDER BY created_at DESC`)
}

// ListDueNotifications возвращает запланированные рассылки с датой не позже now.
func (s *Storage) ListDueNotifications(ctx context.Context, now time.Time) ([]models.Notification, error) {
	const op = "storage.ListDueNotifications"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + notificationColumns + `
			  FROM notifications
			  WHERE status = 'scheduled' AND scheduled_date <= $1
			  ORDER BY scheduled_date`
	return s.queryNotifications(ctx, op, query, now)
}

func (s *Storage) queryNotifications(ctx context.Context, op, query string, args ...any) ([]models.Notification, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateNotification сохраняет статус, даты и показатели рассылки.
// Условие по статусу не даёт перезаписать уже отправленную рассылку.
func (s *Storage) UpdateNotification(ctx context.Context, n models.Notification) error {
	const op = "storage.UpdateNotification"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE notifications
			  SET title = $1, message = $2, type = $3, status = $4, recipients = $5,
			      scheduled_date = $6, sent_date = $7, open_rate = $8, click_rate = $9
			  WHERE id = $10 AND status <> 'sent'`
	res, err := s.DB.ExecContext(ctx, query,
		n.Title, n.Message, n.Type, n.Status, n.Recipients,
		nullTime(n.ScheduledDate), nullTime(n.SentDate), nullFloat(n.OpenRate), nullFloat(n.ClickRate), n.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}
