package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceProvider holds the provider profile and its running aggregates.
type ServiceProvider struct {
	UserID            uuid.UUID       `gorm:"column:user_id;type:uuid;primaryKey"`
	Bio               *string         `gorm:"column:bio"`
	HourlyRate        decimal.Decimal `gorm:"column:hourly_rate;type:numeric(12,2);not null"`
	ExperienceYears   int             `gorm:"column:experience_years;not null"`
	IsVerified        bool            `gorm:"column:is_verified;not null"`
	IsAvailable       bool            `gorm:"column:is_available;not null"`
	Rating            float64         `gorm:"column:rating;not null"`
	TotalReviews      int             `gorm:"column:total_reviews;not null"`
	TotalBookings     int             `gorm:"column:total_bookings;not null"`
	CompletedBookings int             `gorm:"column:completed_bookings;not null"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	User *User `gorm:"foreignKey:UserID;references:ID"`
}
