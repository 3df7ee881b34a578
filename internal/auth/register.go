package auth

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/otp"
	"github.com/homefix/homeservices-backend/internal/providers"
	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/config"
	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/security"
)

const minPasswordLength = 8

// RegisterService handles the account creation transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type otpIssuer interface {
	Issue(ctx context.Context, input otp.IssueInput) (*models.OTP, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	DB             txRunner
	Users          *users.Repository
	Providers      *providers.Repository
	OTP            otpIssuer
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

type registerService struct {
	db          txRunner
	users       *users.Repository
	providers   *providers.Repository
	otp         otpIssuer
	passwordCfg config.PasswordConfig
	logg        *logger.Logger
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Users == nil || params.Providers == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "user and provider repositories required")
	}
	if params.OTP == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "otp service required")
	}
	return &registerService{
		db:          params.DB,
		users:       params.Users,
		providers:   params.Providers,
		otp:         params.OTP,
		passwordCfg: params.PasswordConfig,
		logg:        params.Logger,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	phone := strings.TrimSpace(req.Phone)
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case email == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	case phone == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	case len(req.Password) < minPasswordLength:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	case !req.Role.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role")
	}
	if req.HourlyRate != nil && req.HourlyRate.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hourly rate cannot be negative")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		userRepo := s.users.WithTx(tx)
		exists, err := userRepo.ExistsByEmailOrPhone(ctx, email, phone)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing user")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
		}

		user, err = userRepo.Create(ctx, users.CreateUserDTO{
			Role:         req.Role,
			Name:         req.Name,
			Email:        email,
			Phone:        phone,
			PasswordHash: passwordHash,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "email or phone already registered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}

		if req.Role != enums.UserRoleServiceProvider {
			return nil
		}
		profile := providers.CreateProfileDTO{UserID: user.ID, Bio: req.Bio, HourlyRate: decimal.Zero}
		if req.HourlyRate != nil {
			profile.HourlyRate = *req.HourlyRate
		}
		if req.ExperienceYears != nil {
			profile.ExperienceYears = *req.ExperienceYears
		}
		if _, err := s.providers.WithTx(tx).Create(ctx, profile); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create provider profile")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &RegisterResponse{User: users.FromModel(user)}
	code, err := s.otp.Issue(ctx, otp.IssueInput{Phone: user.Phone, Email: user.Email, Type: enums.OTPTypePhoneVerification})
	if err != nil {
		// The account exists; the user can ask for a new code.
		if s.logg != nil {
			s.logg.Error(s.logg.WithUserID(ctx, user.ID.String()), "issue phone verification otp", err)
		}
		return resp, nil
	}
	expires := code.ExpiresAt
	resp.OTPExpiresAt = &expires
	return resp, nil
}
