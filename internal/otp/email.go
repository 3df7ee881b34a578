package otp

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/homefix/homeservices-backend/pkg/config"
)

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender mails codes to records that carry an email address.
type EmailSender struct {
	dialer mailDialer
	from   string
}

func NewEmailSender(cfg config.SMTPConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.Email)
	m.SetHeader("Subject", "Your HomeFix verification code")
	m.SetBody("text/plain", messageBody(msg))
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
