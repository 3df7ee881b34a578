package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials and masks Aadhaar.
type UserDTO struct {
	ID              uuid.UUID      `json:"id"`
	Role            enums.UserRole `json:"role"`
	Name            string         `json:"name"`
	Email           string         `json:"email"`
	Phone           string         `json:"phone"`
	PhoneVerified   bool           `json:"phoneVerified"`
	AadhaarNumber   *string        `json:"aadhaarNumber,omitempty"`
	AadhaarVerified bool           `json:"aadhaarVerified"`
	IsActive        bool           `json:"isActive"`
	Address         *string        `json:"address,omitempty"`
	City            *string        `json:"city,omitempty"`
	State           *string        `json:"state,omitempty"`
	Pincode         *string        `json:"pincode,omitempty"`
	LastLoginAt     *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Role         enums.UserRole
	Name         string
	Email        string
	Phone        string
	PasswordHash string
}

// ProfileUpdate lists the self-service profile fields. Nil or blank fields
// keep their stored value.
type ProfileUpdate struct {
	Name    *string
	Address *string
	City    *string
	State   *string
	Pincode *string
}

// columns returns the non-blank fields keyed by column name.
func (p ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	for column, value := range map[string]*string{
		"name":    p.Name,
		"address": p.Address,
		"city":    p.City,
		"state":   p.State,
		"pincode": p.Pincode,
	} {
		if value == nil {
			continue
		}
		if trimmed := strings.TrimSpace(*value); trimmed != "" {
			cols[column] = trimmed
		}
	}
	return cols
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	dto := &UserDTO{
		ID:              u.ID,
		Role:            u.Role,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		PhoneVerified:   u.PhoneVerified,
		AadhaarVerified: u.AadhaarVerified,
		IsActive:        u.IsActive,
		Address:         u.Address,
		City:            u.City,
		State:           u.State,
		Pincode:         u.Pincode,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
	if u.AadhaarNumber != nil {
		masked := MaskAadhaar(*u.AadhaarNumber)
		dto.AadhaarNumber = &masked
	}
	return dto
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Role:         c.Role,
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.ToLower(strings.TrimSpace(c.Email)),
		Phone:        strings.TrimSpace(c.Phone),
		PasswordHash: c.PasswordHash,
		IsActive:     true,
	}
}

// MaskAadhaar keeps the last four digits visible.
func MaskAadhaar(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("X", len(number)-4) + number[len(number)-4:]
}
