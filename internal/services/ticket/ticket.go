// Package ticket содержит работу с обращениями в поддержку: создание,
// переписку, смену статуса. Клиент видит только свои обращения и никогда
// не видит внутренних заметок сотрудников.
package ticket

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/apperr"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/metrics"
	"github.com/magabrotheeeer/ewa-delivery/internal/lifecycle"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Repository определяет методы обращений в хранилище.
type Repository interface {
	CreateTicket(ctx context.Context, t models.SupportTicket) (string, error)
	// GetTicket при includeInternal == false не выбирает внутренние заметки.
	GetTicket(ctx context.Context, id string, includeInternal bool) (*models.SupportTicket, error)
	ListTickets(ctx context.Context, userID string) ([]models.SupportTicket, error)
	AddTicketMessage(ctx context.Context, m models.TicketMessage) (string, error)
	UpdateTicketStatus(ctx context.Context, id string, status models.TicketStatus, updatedAt time.Time) error
}

// Service реализует работу с обращениями.
type Service struct {
	repo    Repository
	metrics *metrics.Metrics
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр Service.
func New(repo Repository, m *metrics.Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create открывает обращение от имени actor.
func (s *Service) Create(ctx context.Context, actor models.Actor, req models.DummyTicket) (*models.SupportTicket, error) {
	priority := models.PriorityMedium
	if req.Priority != "" {
		priority = models.TicketPriority(req.Priority)
		if !priority.IsValid() {
			return nil, apperr.New(apperr.KindValidation, "invalid priority "+req.Priority)
		}
	}
	now := s.now()
	t := models.SupportTicket{
		UserID:      actor.ID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      models.TicketOpen,
		Priority:    priority,
		Messages:    []models.TicketMessage{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	id, err := s.repo.CreateTicket(ctx, t)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "ticket")
	}
	t.ID = id
	s.log.Info("ticket created", slog.String("ticket_id", id), slog.String("priority", string(priority)))
	return &t, nil
}

// List возвращает обращения без переписки. Клиент видит только свои.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.SupportTicket, error) {
	userID := actor.ID
	if actor.IsStaff() {
		userID = ""
	}
	tickets, err := s.repo.ListTickets(ctx, userID)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "tickets")
	}
	return tickets, nil
}

// Get возвращает обращение с перепиской. Для клиента внутренние заметки
// не читаются из базы и дополнительно отфильтровываются здесь.
func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.SupportTicket, error) {
	t, err := s.repo.GetTicket(ctx, id, actor.IsStaff())
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindFetch, "ticket")
	}
	if !actor.Owns(t.UserID) {
		return nil, apperr.NotFound("ticket not found")
	}
	if !actor.IsStaff() {
		t.Messages = lifecycle.CustomerTranscript(t.Messages)
	}
	return t, nil
}

// Reply добавляет сообщение в переписку. Внутреннюю заметку может оставить только сотрудник.
func (s *Service) Reply(ctx context.Context, actor models.Actor, id string, req models.DummyReply) (*models.TicketMessage, error) {
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	updated := lifecycle.AppendMessage(*t, models.TicketMessage{
		Sender:     actor.Name,
		SenderRole: actor.Role,
		Content:    req.Content,
		IsInternal: req.IsInternal,
	}, s.now())
	msg := updated.Messages[len(updated.Messages)-1]

	msgID, err := s.repo.AddTicketMessage(ctx, msg)
	if err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "ticket")
	}
	msg.ID = msgID
	return &msg, nil
}

// SetStatus меняет статус обращения. Допускается любой известный статус.
func (s *Service) SetStatus(ctx context.Context, actor models.Actor, id string, status string) (*models.SupportTicket, error) {
	parsed, err := models.ParseTicketStatus(status)
	if err != nil {
		return nil, apperr.Validation(err)
	}
	t, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	next, err := lifecycle.SetTicketStatus(*t, parsed, s.now())
	if err != nil {
		return nil, lifecycle.AppError(err)
	}
	if err := s.repo.UpdateTicketStatus(ctx, id, next.Status, next.UpdatedAt); err != nil {
		return nil, apperr.FromStorage(err, apperr.KindMutation, "ticket")
	}
	s.metrics.Transition("ticket", string(t.Status), string(next.Status))
	return &next, nil
}
