package payments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

type CreateIntentInput struct {
	BookingID uuid.UUID
	UserID    uuid.UUID
	Amount    decimal.Decimal
}

type ConfirmInput struct {
	PaymentID uuid.UUID
	UserID    uuid.UUID
}

type HistoryParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor string
}

type PaymentDTO struct {
	ID               uuid.UUID           `json:"id"`
	BookingID        uuid.UUID           `json:"bookingId"`
	Amount           decimal.Decimal     `json:"amount"`
	Currency         string              `json:"currency"`
	Status           enums.PaymentStatus `json:"status"`
	GatewayPaymentID string              `json:"gatewayPaymentId"`
	TransactionID    *string             `json:"transactionId,omitempty"`
	PaidAt           *time.Time          `json:"paidAt,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
}

// IntentResult is what the client needs to complete payment with the gateway.
type IntentResult struct {
	Payment      PaymentDTO `json:"payment"`
	ClientSecret string     `json:"clientSecret"`
}

type ConfirmResult struct {
	Payment PaymentDTO            `json:"payment"`
	Effects []notifications.Event `json:"-"`
}

type HistoryResult struct {
	Items  []PaymentDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

func fromModel(p *models.Payment) PaymentDTO {
	return PaymentDTO{
		ID:               p.ID,
		BookingID:        p.BookingID,
		Amount:           p.Amount,
		Currency:         p.Currency,
		Status:           p.Status,
		GatewayPaymentID: p.GatewayPaymentID,
		TransactionID:    p.TransactionID,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
	}
}
