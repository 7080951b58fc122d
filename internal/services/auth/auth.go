// Package auth содержит регистрацию, вход, проверку токенов и работу с сессией пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/jwt"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/password"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/session"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
	"github.com/magabrotheeeer/ewa-delivery/internal/storage/repository"
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его ID.
	RegisterUser(ctx context.Context, user models.User) (string, error)
	// GetUserByEmail возвращает пользователя по email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id, name, phone string) error
	// ListSubscriptions нужен для сведений о подписке в сессии.
	ListSubscriptions(ctx context.Context, userID string, limit, offset int) ([]models.Subscription, error)
	// GetStaffByEmail возвращает карточку сотрудника для учётной записи с ролью персонала.
	GetStaffByEmail(ctx context.Context, email string) (*models.InternalUser, error)
}

// SessionStore хранит сессии по идентификатору токена.
type SessionStore interface {
	Save(ctx context.Context, tokenID string, state session.State, ttl time.Duration) error
	Load(ctx context.Context, tokenID string) (session.State, error)
	Delete(ctx context.Context, tokenID string) error
}

// TokenMaker выпускает и проверяет JWT.
type TokenMaker interface {
	jwt.Maker
	TTL() time.Duration
}

// LoginResult результат успешного входа.
type LoginResult struct {
	Token string            `json:"token"`
	User  *session.UserInfo `json:"user"`
}

// Service отвечает за регистрацию, авторизацию и сессии.
type Service struct {
	users    UserRepository
	sessions SessionStore
	tokens   TokenMaker
	log      *slog.Logger
}

// New создает новый экземпляр Service.
func New(users UserRepository, sessions SessionStore, tokens TokenMaker, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		log:      log,
	}
}

// Register создает клиента. Самостоятельная регистрация всегда даёт роль customer.
func (s *Service) Register(ctx context.Context, req models.DummyUser) (string, error) {
	const op = "auth.Register"
	hashed, err := password.GetHash(req.Password)
	if err != nil {
		return "", apperr.Validation(fmt.Errorf("%s: %w", op, err))
	}
	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         models.RoleCustomer,
		Phone:        req.Phone,
		CreatedAt:    time.Now().UTC(),
	}
	id, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return "", apperr.Wrap(apperr.KindConflict, err, "email already registered")
		}
		return "", apperr.FromStorage(err, apperr.KindMutation, "user")
	}
	return id, nil
}

// Login проверяет пароль, выпускает JWT и сохраняет сессию под идентификатором токена.
func (s *Service) Login(ctx context.Context, email, rawPassword string) (*LoginResult, error) {
	const op = "auth.Login"
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.FromStorage(err, apperr.KindFetch, "user")
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthorized, err, "invalid credentials")
	}
	if err := s.checkStaff(ctx, user.Role, user.Email); err != nil {
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.Email, string(user.Role), user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	state := session.State{
		Version:             session.CurrentVersion,
		User:                userInfo(user),
		Token:               token,
		SubscriptionDetails: s.subscriptionDetails(ctx, user.ID),
	}
	if err := s.sessions.Save(ctx, claims.ID, state, s.tokens.TTL()); err != nil {
		return nil, apperr.Mutation(fmt.Errorf("%s: %w", op, err), "could not start session")
	}

	s.log.Info("user logged in", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	return &LoginResult{Token: token, User: state.User}, nil
}

// ValidateToken проверяет подпись токена и наличие сессии. Без сессии токен
// недействителен, даже если срок его жизни не истёк.
func (s *Service) ValidateToken(ctx context.Context, token string) (models.Actor, string, error) {
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return models.Actor{}, "", apperr.Wrap(apperr.KindUnauthorized, err, "invalid or expired token")
	}
	state, err := s.sessions.Load(ctx, claims.ID)
	if err != nil || !state.LoggedIn() {
		if err == nil {
			err = session.ErrSessionNotFound
		}
		return models.Actor{}, "", apperr.Wrap(apperr.KindUnauthorized, err, "session expired")
	}
	if err := s.checkStaff(ctx, state.User.Role, state.User.Email); err != nil {
		return models.Actor{}, "", err
	}
	return models.Actor{
		ID:    state.User.ID,
		Name:  state.User.Name,
		Email: state.User.Email,
		Role:  state.User.Role,
	}, claims.ID, nil
}

// checkStaff пропускает персонал только с активной карточкой сотрудника.
// Отключённый сотрудник теряет доступ сразу, не дожидаясь истечения токена.
func (s *Service) checkStaff(ctx context.Context, role models.Role, email string) error {
	if !role.IsStaff() {
		return nil
	}
	staff, err := s.users.GetStaffByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.Forbidden("staff account is not registered")
		}
		return apperr.FromStorage(err, apperr.KindFetch, "staff")
	}
	if staff.Status != models.StaffActive {
		return apperr.Forbidden("staff account is inactive")
	}
	return nil
}

// CurrentUser возвращает контекст сессии. Испорченная или истёкшая сессия
// даёт пустое состояние: пользователь считается вышедшим.
func (s *Service) CurrentUser(ctx context.Context, tokenID string) session.State {
	state, err := s.sessions.Load(ctx, tokenID)
	if err != nil {
		s.log.Warn("session unavailable", slog.String("op", "auth.CurrentUser"), sl.Err(err))
		return session.Empty()
	}
	return state
}

// Logout удаляет сессию.
func (s *Service) Logout(ctx context.Context, tokenID string) error {
	if err := s.sessions.Delete(ctx, tokenID); err != nil {
		return apperr.Mutation(err, "could not end session")
	}
	return nil
}

// UpdateProfile меняет имя и телефон пользователя и обновляет сессию.
func (s *Service) UpdateProfile(ctx context.Context, actor models.Actor, tokenID string, req models.DummyProfile) (*models.User, error) {
	if err := s.users.UpdateUserProfile(ctx, actor.ID, req.Name, req.Phone); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "user")
	}
	user, err := s.users.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "user")
	}

	state, err := s.sessions.Load(ctx, tokenID)
	if err == nil && state.LoggedIn() {
		state.User = userInfo(user)
		if err := s.sessions.Save(ctx, tokenID, state, s.tokens.TTL()); err != nil {
			s.log.Warn("failed to refresh session", slog.String("op", "auth.UpdateProfile"), sl.Err(err))
		}
	}
	return user, nil
}

func (s *Service) subscriptionDetails(ctx context.Context, userID string) *session.SubscriptionDetails {
	subs, err := s.users.ListSubscriptions(ctx, userID, 10, 0)
	if err != nil {
		s.log.Warn("failed to load subscription for session", slog.String("user_id", userID), sl.Err(err))
		return nil
	}
	for _, sub := range subs {
		if sub.Status == models.SubscriptionCancelled {
			continue
		}
		return &session.SubscriptionDetails{
			SubscriptionID:   sub.ID,
			PlanID:           sub.PlanID,
			Quantity:         sub.Quantity,
			Frequency:        sub.Frequency,
			NextDeliveryDate: sub.NextDeliveryDate,
		}
	}
	return nil
}

func userInfo(u *models.User) *session.UserInfo {
	return &session.UserInfo{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
