package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

// User represents the canonical identity entity for customers and providers.
type User struct {
	ID              uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Role            enums.UserRole `gorm:"column:role;type:text;not null"`
	Name            string         `gorm:"column:name;not null"`
	Email           string         `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	Phone           string         `gorm:"column:phone;not null;uniqueIndex:users_phone_key"`
	PasswordHash    string         `gorm:"column:password_hash;not null"`
	PhoneVerified   bool           `gorm:"column:phone_verified;not null"`
	AadhaarNumber   *string        `gorm:"column:aadhaar_number;uniqueIndex:users_aadhaar_number_key"`
	AadhaarVerified bool           `gorm:"column:aadhaar_verified;not null"`
	IsActive        bool           `gorm:"column:is_active;not null"`
	Address         *string        `gorm:"column:address"`
	City            *string        `gorm:"column:city"`
	State           *string        `gorm:"column:state"`
	Pincode         *string        `gorm:"column:pincode"`
	LastLoginAt     *time.Time     `gorm:"column:last_login_at"`
	CreatedAt       time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	return nil
}
