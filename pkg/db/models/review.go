package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/homefix/homeservices-backend/pkg/db/types"
)

// ReviewBookingUniqueConstraint guarantees one review per booking.
const ReviewBookingUniqueConstraint = "reviews_booking_id_key"

// Review is a customer's rating of a completed booking.
type Review struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	BookingID  uuid.UUID          `gorm:"column:booking_id;type:uuid;not null;uniqueIndex:reviews_booking_id_key"`
	UserID     uuid.UUID          `gorm:"column:user_id;type:uuid;not null"`
	ProviderID uuid.UUID          `gorm:"column:provider_id;type:uuid;not null;index"`
	Rating     int                `gorm:"column:rating;not null"`
	Comment    *string            `gorm:"column:comment"`
	Images     dbtypes.StringList `gorm:"column:images;type:jsonb;not null"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (r *Review) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
