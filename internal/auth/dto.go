package auth

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the tokens and user produced by a successful login.
type LoginResponse struct {
	AccessToken  string         `json:"accessToken"`
	RefreshToken string         `json:"refreshToken"`
	User         *users.UserDTO `json:"user"`
}

// RegisterRequest contains the payload required for creating an account.
// Provider fields are only read when Role is SERVICE_PROVIDER.
type RegisterRequest struct {
	Name            string           `json:"name" validate:"required,min=2,max=100"`
	Email           string           `json:"email" validate:"required,email"`
	Phone           string           `json:"phone" validate:"required,e164"`
	Password        string           `json:"password" validate:"required,min=8"`
	Role            enums.UserRole   `json:"role" validate:"required"`
	Bio             *string          `json:"bio,omitempty"`
	HourlyRate      *decimal.Decimal `json:"hourlyRate,omitempty"`
	ExperienceYears *int             `json:"experienceYears,omitempty" validate:"omitempty,min=0,max=80"`
}

// RegisterResponse returns the new user and when their phone code expires.
type RegisterResponse struct {
	User         *users.UserDTO `json:"user"`
	OTPExpiresAt *time.Time     `json:"otpExpiresAt,omitempty"`
}
