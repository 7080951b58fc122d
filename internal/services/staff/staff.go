// Package staff управляет учётными записями сотрудников и их правами.
package staff

import (
	"context"
	"log/slog"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/permissions"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы сотрудников в хранилище.
type Repository interface {
	ListStaff(ctx context.Context) ([]models.InternalUser, error)
	GetStaff(ctx context.Context, id string) (*models.InternalUser, error)
	CreateStaff(ctx context.Context, u models.InternalUser) (string, error)
	UpdateStaff(ctx context.Context, u models.InternalUser) error
}

// Service реализует работу с сотрудниками.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// List возвращает всех сотрудников.
func (s *Service) List(ctx context.Context) ([]models.InternalUser, error) {
	list, err := s.repo.ListStaff(ctx)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "staff")
	}
	return list, nil
}

// Create добавляет сотрудника. Без явного набора права берутся из таблицы роли.
func (s *Service) Create(ctx context.Context, req models.DummyInternalUser) (*models.InternalUser, error) {
	role, err := parseStaffRole(req.Role)
	if err != nil {
		return nil, err
	}
	draft := permissions.NewDraft(models.InternalUser{})
	draft.ChangeRole(role)
	if req.Permissions != nil {
		draft.Set(req.Permissions)
	}

	u := models.InternalUser{
		Name:        req.Name,
		Email:       req.Email,
		Role:        draft.Role,
		Status:      statusOrDefault(req.Status),
		Permissions: draft.Permissions,
	}
	id, err := s.repo.CreateStaff(ctx, u)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "staff member")
	}
	u.ID = id
	s.log.Info("staff member created", slog.String("id", id), slog.String("role", string(role)))
	return &u, nil
}

// Update изменяет сотрудника.
// При смене роли права заменяются таблицей новой роли, присланный набор игнорируется.
func (s *Service) Update(ctx context.Context, id string, req models.DummyInternalUser) (*models.InternalUser, error) {
	role, err := parseStaffRole(req.Role)
	if err != nil {
		return nil, err
	}
	current, err := s.repo.GetStaff(ctx, id)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "staff member")
	}

	draft := permissions.NewDraft(*current)
	switch {
	case role != current.Role:
		draft.ChangeRole(role)
	case req.Permissions != nil:
		draft.Set(req.Permissions)
	}

	next := *current
	next.Name = req.Name
	next.Email = req.Email
	next.Role = draft.Role
	next.Permissions = draft.Permissions
	if req.Status != "" {
		next.Status = models.StaffStatus(req.Status)
	}
	if err := s.repo.UpdateStaff(ctx, next); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "staff member")
	}
	if role != current.Role {
		s.log.Info("staff role changed, permissions reset",
			slog.String("id", id),
			slog.String("from", string(current.Role)),
			slog.String("to", string(role)),
		)
	}
	return &next, nil
}

func parseStaffRole(value string) (models.Role, error) {
	role := models.Role(value)
	if !role.IsStaff() {
		return "", apperr.New(apperr.KindValidation, "role must be one of admin operator editor support")
	}
	return role, nil
}

func statusOrDefault(value string) models.StaffStatus {
	if value == "" {
		return models.StaffActive
	}
	return models.StaffStatus(value)
}
