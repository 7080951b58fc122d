// Package sender превращает события из очередей в письма клиентам.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/ewa-delivery/internal/lib/sl"
	"github.com/magabrotheeeer/ewa-delivery/internal/lib/smtp"
	"github.com/magabrotheeeer/ewa-delivery/internal/models"
)

// Service отправляет письма через SMTP-транспорт.
type Service struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport smtp.TransportInterface, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		log:       log,
	}
}

// HandleReminder отправляет напоминание о завтрашней или перенесённой доставке.
func (s *Service) HandleReminder(ctx context.Context, body []byte) error {
	var message models.DeliveryReminder
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	if message.Email == "" {
		s.log.Warn("reminder without email, skipped", slog.String("delivery_id", message.DeliveryID))
		return nil
	}

	subject := "Напоминание о доставке воды EWA"
	bodyText := fmt.Sprintf("Здравствуйте, %s!\n\nДоставка запланирована на %s, интервал %s.\nАдрес: %s.\n\nЕсли планы изменились, пропустите или перенесите доставку в личном кабинете.",
		message.Name, message.Date, message.EstimatedTime, message.Address)

	return s.sendEmail(ctx, []string{message.Email}, subject, bodyText)
}

// HandleNotificationSent рассылает письмо по отправленной рассылке.
// Рассылки других каналов пропускаются: их доставляет внешний провайдер.
func (s *Service) HandleNotificationSent(ctx context.Context, body []byte) error {
	var message models.NotificationSentEvent
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}
	if message.Type != models.NotificationEmail {
		s.log.Info("notification channel is not email, skipped",
			slog.String("notification_id", message.NotificationID),
			slog.String("type", string(message.Type)),
		)
		return nil
	}

	var errs []error
	for _, addr := range message.Recipients {
		if err := s.sendEmail(ctx, []string{addr}, message.Title, message.Message); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Service) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From:    " + s.transport.GetSMTPUser(),
		"To:      " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
