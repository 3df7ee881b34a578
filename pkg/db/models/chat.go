package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is the per-booking conversation thread header.
type Chat struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:chats_booking_id_key"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	ProviderID uuid.UUID `gorm:"column:provider_id;type:uuid;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (c *Chat) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	return nil
}
