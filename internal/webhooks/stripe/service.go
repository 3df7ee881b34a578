package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	"github.com/homefix/homeservices-backend/internal/payments"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

type intentSettler interface {
	SettleIntent(ctx context.Context, intentID string) (*payments.ConfirmResult, error)
}

type ServiceParams struct {
	Payments intentSettler
	Logger   *logger.Logger
}

// Service reconciles booking payments from Stripe payment intent events.
type Service struct {
	payments intentSettler
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments service required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

// HandleEvent settles the payment behind a payment intent event. The event
// body only names the intent; its status is re-read from Stripe.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded,
		stripe.EventTypePaymentIntentPaymentFailed,
		stripe.EventTypePaymentIntentCanceled:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		if intent.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
		}
		result, err := s.payments.SettleIntent(ctx, intent.ID)
		if err != nil {
			return err
		}
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"stripe_event_id":   event.ID,
				"stripe_event_type": string(event.Type),
				"payment_intent_id": intent.ID,
			})
			if result == nil {
				s.logg.Warn(logCtx, "payment intent has no matching payment")
			} else {
				s.logg.Info(s.logg.WithField(logCtx, "payment_status", result.Payment.Status), "payment intent settled")
			}
		}
		return nil
	default:
		return nil
	}
}
