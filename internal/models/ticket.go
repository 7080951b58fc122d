package models

import (
	"fmt"
	"time"
)

// TicketStatus статус обращения в поддержку.
type TicketStatus string

// Статусы обращения. Переход допускается из любого статуса в любой.
const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in-progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// IsValid сообщает, известен ли статус.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

// ParseTicketStatus преобразует строку в TicketStatus.
func ParseTicketStatus(value string) (TicketStatus, error) {
	s := TicketStatus(value)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid ticket status %q", value)
	}
	return s, nil
}

// TicketPriority приоритет обращения.
type TicketPriority string

// Приоритеты обращения.
const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// IsValid сообщает, известен ли приоритет.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TicketMessage сообщение в переписке по обращению.
// Внутренние заметки (IsInternal) никогда не попадают в клиентскую переписку.
type TicketMessage struct {
	ID         string    `json:"id"`
	TicketID   string    `json:"ticket_id"`
	Sender     string    `json:"sender"`
	SenderRole Role      `json:"sender_role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	IsInternal bool      `json:"is_internal"`
}

// SupportTicket обращение клиента в поддержку.
type SupportTicket struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Subject     string          `json:"subject"`
	Description string          `json:"description"`
	Status      TicketStatus    `json:"status"`
	Priority    TicketPriority  `json:"priority"`
	Messages    []TicketMessage `json:"messages"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DummyTicket тело запроса на создание обращения.
type DummyTicket struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description" validate:"required"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// DummyReply тело запроса на ответ в обращении.
type DummyReply struct {
	Content    string `json:"content" validate:"required"`
	IsInternal bool   `json:"is_internal"`
}

// DummyTicketStatus тело запроса на смену статуса обращения.
type DummyTicketStatus struct {
	Status string `json:"status" validate:"required,oneof=open in-progress resolved closed"`
}
