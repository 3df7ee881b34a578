package verification

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/internal/otp"
	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

// Service orchestrates phone and Aadhaar verification on top of OTPs.
type Service interface {
	VerifyPhone(ctx context.Context, phone, code string) error
	RequestAadhaarVerification(ctx context.Context, userID uuid.UUID, aadhaarNumber string) error
	ConfirmAadhaarVerification(ctx context.Context, userID uuid.UUID, phone, code string) (*users.UserDTO, error)
	ResendOTP(ctx context.Context, phone string, otpType enums.OTPType) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ServiceParams bundles verification dependencies.
type ServiceParams struct {
	DB     txRunner
	Users  *users.Repository
	OTP    otp.Service
	Logger *logger.Logger
}

type service struct {
	tx    txRunner
	users *users.Repository
	otp   otp.Service
	logg  *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users repository required")
	}
	if params.OTP == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "otp service required")
	}
	return &service{
		tx:    params.DB,
		users: params.Users,
		otp:   params.OTP,
		logg:  params.Logger,
	}, nil
}

// VerifyPhone consumes a PHONE_VERIFICATION code and marks the owner's phone verified.
// The user lookup runs first so codes are not burned for unknown phones.
func (s *service) VerifyPhone(ctx context.Context, phone, code string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" || strings.TrimSpace(code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone and otp are required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.FindByPhone(ctx, phone)
		if err != nil {
			return userLookupError(err)
		}

		ok, err := s.otp.VerifyTx(ctx, tx, phone, code, enums.OTPTypePhoneVerification)
		if err != nil {
			return err
		}
		if !ok {
			return invalidOTP()
		}

		if err := repo.MarkPhoneVerified(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark phone verified")
		}
		return nil
	})
}

// RequestAadhaarVerification attaches the candidate number and sends a confirmation code
// to the user's registered phone.
func (s *service) RequestAadhaarVerification(ctx context.Context, userID uuid.UUID, aadhaarNumber string) error {
	number := strings.TrimSpace(aadhaarNumber)
	if userID == uuid.Nil || number == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id and aadhaar number are required")
	}

	var user *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		found, err := repo.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		user = found

		if found.AadhaarVerified && found.AadhaarNumber != nil && *found.AadhaarNumber != number {
			return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrAadhaarAlreadyVerified, "aadhaar already verified")
		}

		if _, err := repo.FindAadhaarHolder(ctx, number, userID); err == nil {
			return duplicateAadhaar()
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup aadhaar holder")
		}

		if err := repo.AttachAadhaar(ctx, userID, number); err != nil {
			if db.IsUniqueViolation(err, users.AadhaarUniqueConstraint) || db.IsUniqueViolation(err, "aadhaar_number") {
				return duplicateAadhaar()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach aadhaar")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := s.otp.Issue(ctx, otp.IssueInput{
		Phone: user.Phone,
		Type:  enums.OTPTypeAadhaarVerification,
	}); err != nil {
		return err
	}
	if s.logg != nil {
		logCtx := s.logg.WithUserID(ctx, userID.String())
		s.logg.Info(logCtx, "aadhaar verification requested")
	}
	return nil
}

// ConfirmAadhaarVerification consumes an AADHAAR_VERIFICATION code and returns the updated user.
func (s *service) ConfirmAadhaarVerification(ctx context.Context, userID uuid.UUID, phone, code string) (*users.UserDTO, error) {
	phone = strings.TrimSpace(phone)
	if userID == uuid.Nil || phone == "" || strings.TrimSpace(code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id, phone and otp are required")
	}

	var updated *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.users.WithTx(tx)
		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err)
		}
		if user.AadhaarNumber == nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrAadhaarNotAttached, "aadhaar number not attached")
		}
		// Codes are only ever sent to the registered phone.
		if user.Phone != phone {
			return invalidOTP()
		}

		ok, err := s.otp.VerifyTx(ctx, tx, phone, code, enums.OTPTypeAadhaarVerification)
		if err != nil {
			return err
		}
		if !ok {
			return invalidOTP()
		}

		if err := repo.MarkAadhaarVerified(ctx, userID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark aadhaar verified")
		}
		updated, err = repo.FindByID(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users.FromModel(updated), nil
}

// ResendOTP issues a fresh code for a registered phone; earlier codes stay valid.
func (s *service) ResendOTP(ctx context.Context, phone string, otpType enums.OTPType) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if !otpType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid otp type")
	}
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		return userLookupError(err)
	}
	_, err = s.otp.Issue(ctx, otp.IssueInput{Phone: user.Phone, Type: otpType})
	return err
}

func userLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrUserNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user")
}

func invalidOTP() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidOrExpiredOTP, "invalid or expired otp")
}

func duplicateAadhaar() error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateAadhaar, "aadhaar number already registered")
}
