package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

// Payment correlates a booking with a gateway payment intent.
type Payment struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BookingID        uuid.UUID           `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:payments_booking_id_key"`
	UserID           uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Amount           decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency         string              `gorm:"column:currency;not null"`
	GatewayPaymentID string              `gorm:"column:gateway_payment_id;not null"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null"`
	TransactionID    *string             `gorm:"column:transaction_id"`
	PaidAt           *time.Time          `gorm:"column:paid_at"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
