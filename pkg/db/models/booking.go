package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

// Booking is a scheduled engagement between a customer and a provider.
// CompletedAt is set iff Status is COMPLETED; CancelledAt and
// CancellationReason are set iff Status is CANCELLED.
type Booking struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID         uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	ProviderID         uuid.UUID           `gorm:"column:provider_id;type:uuid;not null;index"`
	ServiceID          uuid.UUID           `gorm:"column:service_id;type:uuid;not null"`
	ScheduledDate      time.Time           `gorm:"column:scheduled_date;not null"`
	ScheduledTime      string              `gorm:"column:scheduled_time;not null"`
	Address            string              `gorm:"column:address;not null"`
	Latitude           *float64            `gorm:"column:latitude"`
	Longitude          *float64            `gorm:"column:longitude"`
	Description        *string             `gorm:"column:description"`
	Status             enums.BookingStatus `gorm:"column:status;type:text;not null"`
	EstimatedPrice     decimal.Decimal     `gorm:"column:estimated_price;type:numeric(12,2);not null"`
	FinalPrice         *decimal.Decimal    `gorm:"column:final_price;type:numeric(12,2)"`
	CompletedAt        *time.Time          `gorm:"column:completed_at"`
	CancelledAt        *time.Time          `gorm:"column:cancelled_at"`
	CancellationReason *string             `gorm:"column:cancellation_reason"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`

	Service *Service `gorm:"foreignKey:ServiceID;references:ID"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	return nil
}

// Involves reports whether userID is the booking's customer or provider.
func (b *Booking) Involves(userID uuid.UUID) bool {
	return b.CustomerID == userID || b.ProviderID == userID
}

// Counterpart returns the other party of the booking relative to userID.
func (b *Booking) Counterpart(userID uuid.UUID) uuid.UUID {
	if b.CustomerID == userID {
		return b.ProviderID
	}
	return b.CustomerID
}
