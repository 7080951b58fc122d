package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

func scanStaff(row scanner) (models.InternalUser, error) {
	var (
		u     models.InternalUser
		perms []byte
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.Status, &perms); err != nil {
		return u, err
	}
	if err := fromJSON(perms, &u.Permissions); err != nil {
		return u, fmt.Errorf("permissions: %w", err)
	}
	return u, nil
}

// ListStaff возвращает всех сотрудников.
func (s *Storage) ListStaff(ctx context.Context) ([]models.InternalUser, error) {
	const op = "storage.ListStaff"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, email, role, status, permissions FROM internal_users ORDER BY name`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var result []models.InternalUser
	for rows.Next() {
		u, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetStaff возвращает сотрудника по ID.
func (s *Storage) GetStaff(ctx context.Context, id string) (*models.InternalUser, error) {
	const op = "storage.GetStaff"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanStaff(s.DB.QueryRowContext(ctx,
		`SELECT id, name, email, role, status, permissions FROM internal_users WHERE id = $1`, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &u, nil
}

// GetStaffByEmail возвращает сотрудника по email учётной записи.
func (s *Storage) GetStaffByEmail(ctx context.Context, email string) (*models.InternalUser, error) {
	const op = "storage.GetStaffByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanStaff(s.DB.QueryRowContext(ctx,
		`SELECT id, name, email, role, status, permissions FROM internal_users WHERE email = $1`, email))
	if err != nil {
		return nil, wrap(op, err)
	}
	return &u, nil
}

// CreateStaff сохраняет сотрудника и возвращает его ID.
func (s *Storage) CreateStaff(ctx context.Context, u models.InternalUser) (string, error) {
	const op = "storage.CreateStaff"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	perms, err := permissionsJSON(u.Permissions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	var id string
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO internal_users (name, email, role, status, permissions)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		u.Name, u.Email, u.Role, u.Status, perms).Scan(&id)
	if err != nil {
		return "", wrap(op, err)
	}
	return id, nil
}

// UpdateStaff перезаписывает сотрудника целиком.
func (s *Storage) UpdateStaff(ctx context.Context, u models.InternalUser) error {
	const op = "storage.UpdateStaff"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	perms, err := permissionsJSON(u.Permissions)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.DB.ExecContext(ctx,
		`UPDATE internal_users SET name = $1, email = $2, role = $3, status = $4, permissions = $5 WHERE id = $6`,
		u.Name, u.Email, u.Role, u.Status, perms, u.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}

func permissionsJSON(perms []string) ([]byte, error) {
	if perms == nil {
		perms = []string{}
	}
	return toJSON(perms)
}
