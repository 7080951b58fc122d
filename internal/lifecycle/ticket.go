package lifecycle

import (
	"fmt"
	"time"

	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// SetTicketStatus меняет статус обращения. Порядок статусов не навязывается:
// допускается переход из любого статуса в любой известный.
func SetTicketStatus(t models.SupportTicket, status models.TicketStatus, now time.Time) (models.SupportTicket, error) {
	if !status.IsValid() {
		return t, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	next := t
	next.Status = status
	next.UpdatedAt = now
	return next, nil
}

// AppendMessage добавляет сообщение в переписку. Клиент не может оставлять внутренние заметки.
func AppendMessage(t models.SupportTicket, msg models.TicketMessage, now time.Time) models.SupportTicket {
	if msg.SenderRole == models.RoleCustomer {
		msg.IsInternal = false
	}
	msg.TicketID = t.ID
	msg.Timestamp = now
	next := t
	next.Messages = append(append([]models.TicketMessage(nil), t.Messages...), msg)
	next.UpdatedAt = now
	return next
}

// CustomerTranscript возвращает переписку без внутренних заметок.
func CustomerTranscript(messages []models.TicketMessage) []models.TicketMessage {
	result := make([]models.TicketMessage, 0, len(messages))
	for _, m := range messages {
		if m.IsInternal {
			continue
		}
		result = append(result, m)
	}
	return result
}
