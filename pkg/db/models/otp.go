package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

// OTP is a single-use verification code scoped to a phone and a flow.
type OTP struct {
	ID        uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Phone     string        `gorm:"column:phone;not null;index:otps_lookup_idx"`
	Email     *string       `gorm:"column:email"`
	Code      string        `gorm:"column:code;not null;index:otps_lookup_idx"`
	Type      enums.OTPType `gorm:"column:type;type:text;not null;index:otps_lookup_idx"`
	ExpiresAt time.Time     `gorm:"column:expires_at;not null;index"`
	Verified  bool          `gorm:"column:verified;not null"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime"`
}

func (OTP) TableName() string { return "otps" }

func (o *OTP) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
