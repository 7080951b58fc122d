package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

const ticketColumns = `id, user_id, subject, description, status, priority, created_at, updated_at`

func scanTicket(row scanner) (models.SupportTicket, error) {
	var t models.SupportTicket
	err := row.Scan(&t.ID, &t.UserID, &t.Subject, &t.Description, &t.Status, &t.Priority, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// CreateTicket сохраняет обращение и возвращает его ID.
func (s *Storage) CreateTicket(ctx context.Context, t models.SupportTicket) (string, error) {
	const op = "storage.CreateTicket"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	query := `INSERT INTO support_tickets (user_id, subject, description, status, priority, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $6)
			  RETURNING id`
	var id string
	if err := s.DB.QueryRowContext(ctx, query,
		t.UserID, t.Subject, t.Description, t.Status, t.Priority, t.CreatedAt).Scan(&id); err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// GetTicket возвращает обращение с перепиской. Если includeInternal false,
// внутренние заметки сотрудников не выбираются из базы.
func (s *Storage) GetTicket(ctx context.Context, id string, includeInternal bool) (*models.SupportTicket, error) {
	const op = "storage.GetTicket"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	t, err := scanTicket(s.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM support_tickets WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}

	query := `SELECT id, ticket_id, sender, sender_role, content, created_at, is_internal
			  FROM ticket_messages
			  WHERE ticket_id = $1 AND ($2 OR is_internal = false)
			  ORDER BY created_at, id`
	rows, err := s.DB.QueryContext(ctx, query, id, includeInternal)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	t.Messages = []models.TicketMessage{}
	for rows.Next() {
		var m models.TicketMessage
		if err := rows.Scan(&m.ID, &m.TicketID, &m.Sender, &m.SenderRole, &m.Content, &m.Timestamp, &m.IsInternal); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		t.Messages = append(t.Messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &t, nil
}

// ListTickets возвращает обращения пользователя userID без переписки,
// а при пустом userID все обращения.
func (s *Storage) ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error) {
	const op = "storage.ListTickets"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + ticketColumns + `
			  FROM support_tickets
			  WHERE ($1::uuid IS NULL OR user_id = $1::uuid)
			  ORDER BY updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, nullString(userID))
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.SupportTicket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// AddTicketMessage добавляет сообщение в переписку и обновляет время изменения обращения.
func (s *Storage) AddTicketMessage(ctx context.Context, m models.TicketMessage) (string, error) {
	const op = "storage.AddTicketMessage"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO ticket_messages (ticket_id, sender, sender_role, content, is_internal, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		m.TicketID, m.Sender, m.SenderRole, m.Content, m.IsInternal, m.Timestamp).Scan(&id)
	if err != nil {
		return "", wrap(op, err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE support_tickets SET updated_at = $1 WHERE id = $2`, m.Timestamp, m.TicketID)
	if err != nil {
		return "", wrap(op, err)
	}
	if err := expectOne(op, res); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateTicketStatus меняет статус обращения.
func (s *Storage) UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus, updatedAt time.Time) error {
	const op = "storage.UpdateTicketStatus"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE support_tickets SET status = $1, updated_at = $2 WHERE id = $3`, status, updatedAt, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}
