package otp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

// Message is a code ready for delivery to its owner.
type Message struct {
	Phone     string
	Email     string
	Code      string
	Type      enums.OTPType
	ExpiresAt time.Time
}

// Sender delivers an issued code over an external channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func messageBody(msg Message) string {
	minutes := int(time.Until(msg.ExpiresAt).Round(time.Minute) / time.Minute)
	if minutes <= 0 {
		minutes = 1
	}
	return fmt.Sprintf("Your HomeFix verification code is %s. It expires in %d minutes.", msg.Code, minutes)
}

// LogSender writes codes to the structured log; dev environments only.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if s.logg == nil {
		return nil
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"phone":    msg.Phone,
		"otp_type": msg.Type,
		"otp_code": msg.Code,
	})
	s.logg.Info(logCtx, "otp issued")
	return nil
}

// MultiSender fans a message out to every sender and combines failures.
type MultiSender struct {
	senders []Sender
}

func NewMultiSender(senders ...Sender) *MultiSender {
	filtered := make([]Sender, 0, len(senders))
	for _, s := range senders {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSender{senders: filtered}
}

func (m *MultiSender) Send(ctx context.Context, msg Message) error {
	var errs error
	for _, s := range m.senders {
		errs = multierr.Append(errs, s.Send(ctx, msg))
	}
	return errs
}
