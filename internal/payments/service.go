package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/outbox"
	"github.com/homefix/homeservices-backend/pkg/pagination"
)

// Service correlates booking payments with gateway payment intents.
type Service interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error)
	Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
	History(ctx context.Context, params HistoryParams) (*HistoryResult, error)
	// SettleIntent reconciles a payment with the gateway's current view of its
	// intent. Unknown intents are ignored.
	SettleIntent(ctx context.Context, intentID string) (*ConfirmResult, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type effectQueue interface {
	Enqueue(ctx context.Context, tx *gorm.DB, aggregate enums.OutboxAggregateType, aggregateID uuid.UUID, actor *outbox.ActorRef, events []notifications.Event) []notifications.Event
}

type effectDrainer interface {
	Drain(ctx context.Context, events []notifications.Event)
}

type ServiceParams struct {
	DB      txRunner
	Repo    *Repository
	Gateway Gateway
	Queue   effectQueue
	Drainer effectDrainer
	Logger  *logger.Logger
	Now     func() time.Time
}

type service struct {
	tx      txRunner
	repo    *Repository
	gateway Gateway
	queue   effectQueue
	drainer effectDrainer
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payments repository required")
	}
	if params.Gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment gateway required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		tx:      params.DB,
		repo:    params.Repo,
		gateway: params.Gateway,
		queue:   params.Queue,
		drainer: params.Drainer,
		logg:    params.Logger,
		now:     now,
	}, nil
}

var hundred = decimal.NewFromInt(100)

func (s *service) CreateIntent(ctx context.Context, input CreateIntentInput) (*IntentResult, error) {
	if input.BookingID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "booking id and user id are required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	amount := input.Amount.Round(2)

	booking, err := s.repo.FindBooking(ctx, input.BookingID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
	}
	if booking == nil || booking.CustomerID != input.UserID || booking.Status != enums.BookingStatusConfirmed {
		return nil, notEligible()
	}
	exists, err := s.repo.ExistsForBooking(ctx, booking.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing payment")
	}
	if exists {
		return nil, paymentExists()
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		AmountMinor: amount.Mul(hundred).IntPart(),
		BookingID:   booking.ID,
		UserID:      input.UserID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	payment := &models.Payment{
		BookingID:        booking.ID,
		UserID:           input.UserID,
		Amount:           amount,
		Currency:         Currency,
		GatewayPaymentID: intent.ID,
		Status:           enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if db.IsUniqueViolation(err, UniqueConstraint) || db.IsUniqueViolation(err, "payments.booking_id") {
			return nil, paymentExists()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment")
	}
	return &IntentResult{Payment: fromModel(payment), ClientSecret: intent.ClientSecret}, nil
}

func (s *service) Confirm(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.PaymentID == uuid.Nil || input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id and user id are required")
	}
	payment, err := s.repo.FindByID(ctx, input.PaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil || payment.UserID != input.UserID {
		return nil, notFound()
	}
	if payment.Status == enums.PaymentStatusCompleted {
		return &ConfirmResult{Payment: fromModel(payment)}, nil
	}

	intent, err := s.gateway.GetIntent(ctx, payment.GatewayPaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	if intent == nil || !intent.Succeeded {
		status := ""
		if intent != nil {
			status = intent.Status
		}
		return nil, notSuccessful(status)
	}

	return s.complete(ctx, payment, intent, input.UserID)
}

func (s *service) SettleIntent(ctx context.Context, intentID string) (*ConfirmResult, error) {
	if intentID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	payment, err := s.repo.FindByGatewayID(ctx, intentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	if payment == nil {
		return nil, nil
	}
	if payment.Status != enums.PaymentStatusPending {
		return &ConfirmResult{Payment: fromModel(payment)}, nil
	}

	intent, err := s.gateway.GetIntent(ctx, payment.GatewayPaymentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment intent")
	}
	if intent == nil {
		return &ConfirmResult{Payment: fromModel(payment)}, nil
	}
	if intent.Failed {
		if _, err := s.repo.MarkFailed(ctx, payment.ID, s.now().UTC()); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fail payment")
		}
		updated, err := s.repo.FindByID(ctx, payment.ID)
		if err != nil || updated == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
		}
		return &ConfirmResult{Payment: fromModel(updated)}, nil
	}
	if !intent.Succeeded {
		return &ConfirmResult{Payment: fromModel(payment)}, nil
	}
	return s.complete(ctx, payment, intent, payment.UserID)
}

// complete marks payment paid, records the booking's final price and notifies
// the provider. A payment already completed by a concurrent caller is returned
// as is without a second notification.
func (s *service) complete(ctx context.Context, payment *models.Payment, intent *Intent, actorID uuid.UUID) (*ConfirmResult, error) {
	now := s.now().UTC()
	var effects []notifications.Event
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		applied, err := repo.MarkCompleted(ctx, payment.ID, intent.TransactionID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete payment")
		}
		if !applied {
			return nil
		}
		if err := repo.SetFinalPrice(ctx, payment.BookingID, payment.Amount, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set final price")
		}
		booking, err := repo.FindBooking(ctx, payment.BookingID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load booking")
		}
		if booking == nil || s.queue == nil {
			return nil
		}
		effects = s.queue.Enqueue(ctx, tx, enums.AggregatePayment, payment.ID, &outbox.ActorRef{UserID: actorID}, []notifications.Event{{
			UserID:  booking.ProviderID,
			Title:   "Payment Received",
			Message: fmt.Sprintf("Payment of ₹%s received for your booking", payment.Amount.StringFixed(2)),
			Type:    enums.NotificationTypePaymentReceived,
			Data: map[string]any{
				"bookingId": booking.ID.String(),
				"paymentId": payment.ID.String(),
			},
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.drainer != nil && len(effects) > 0 {
		s.drainer.Drain(ctx, effects)
	}
	updated, err := s.repo.FindByID(ctx, payment.ID)
	if err != nil || updated == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload payment")
	}
	if s.logg != nil {
		logCtx := s.logg.WithFields(s.logg.WithBookingID(ctx, payment.BookingID.String()), map[string]any{"payment_id": payment.ID.String()})
		s.logg.Info(logCtx, "payment confirmed")
	}
	return &ConfirmResult{Payment: fromModel(updated), Effects: effects}, nil
}

func (s *service) History(ctx context.Context, params HistoryParams) (*HistoryResult, error) {
	if params.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	query := listPaymentsParams{UserID: params.UserID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payments")
	}
	items := make([]PaymentDTO, 0, len(rows))
	for i := range rows {
		items = append(items, fromModel(&rows[i]))
	}
	result := &HistoryResult{Items: items}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}
