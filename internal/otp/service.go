package otp

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
	"github.com/homefix/homeservices-backend/pkg/metrics"
	"github.com/homefix/homeservices-backend/pkg/security"
)

// DefaultTTL is how long an issued code stays usable.
const DefaultTTL = 10 * time.Minute

// IssueInput describes a code request.
type IssueInput struct {
	Phone string
	Type  enums.OTPType
	Email string
}

// Service issues, verifies, and sweeps one-time codes.
type Service interface {
	Issue(ctx context.Context, input IssueInput) (*models.OTP, error)
	Verify(ctx context.Context, phone, code string, otpType enums.OTPType) (bool, error)
	VerifyTx(ctx context.Context, tx *gorm.DB, phone, code string, otpType enums.OTPType) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
}

// ServiceParams bundles OTP service dependencies.
type ServiceParams struct {
	Repo    *Repository
	Sender  Sender
	TTL     time.Duration
	Logger  *logger.Logger
	Metrics *metrics.DomainMetrics
	Now     func() time.Time
	// Generate overrides code generation in tests.
	Generate func() (string, error)
}

type service struct {
	repo     *Repository
	sender   Sender
	ttl      time.Duration
	logg     *logger.Logger
	metrics  *metrics.DomainMetrics
	now      func() time.Time
	generate func() (string, error)
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "otp repository required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	generate := params.Generate
	if generate == nil {
		generate = security.GenerateOTP
	}
	return &service{
		repo:     params.Repo,
		sender:   params.Sender,
		ttl:      ttl,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
		generate: generate,
	}, nil
}

func (s *service) Issue(ctx context.Context, input IssueInput) (*models.OTP, error) {
	phone := strings.TrimSpace(input.Phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid otp type")
	}

	code, err := s.generate()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp")
	}

	record := &models.OTP{
		Phone:     phone,
		Code:      code,
		Type:      input.Type,
		ExpiresAt: s.clock().Add(s.ttl),
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		record.Email = &email
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store otp")
	}
	s.metrics.IncOTP(string(input.Type), "issued")

	s.dispatch(ctx, record)
	return record, nil
}

// dispatch hands the code to the sender; failures never undo issuance.
func (s *service) dispatch(ctx context.Context, record *models.OTP) {
	if s.sender == nil {
		return
	}
	msg := Message{
		Phone:     record.Phone,
		Code:      record.Code,
		Type:      record.Type,
		ExpiresAt: record.ExpiresAt,
	}
	if record.Email != nil {
		msg.Email = *record.Email
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		s.metrics.IncOTP(string(record.Type), "delivery_failed")
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"otp_id":   record.ID.String(),
				"otp_type": record.Type,
			})
			s.logg.Error(logCtx, "otp delivery failed", err)
		}
	}
}

func (s *service) Verify(ctx context.Context, phone, code string, otpType enums.OTPType) (bool, error) {
	return s.verify(ctx, s.repo, phone, code, otpType)
}

func (s *service) VerifyTx(ctx context.Context, tx *gorm.DB, phone, code string, otpType enums.OTPType) (bool, error) {
	return s.verify(ctx, s.repo.WithTx(tx), phone, code, otpType)
}

func (s *service) verify(ctx context.Context, repo *Repository, phone, code string, otpType enums.OTPType) (bool, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || code == "" || !otpType.IsValid() {
		return false, nil
	}

	now := s.clock()
	candidates, err := repo.FindUsable(ctx, phone, code, otpType, now)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup otp")
	}
	for _, candidate := range candidates {
		ok, err := repo.Consume(ctx, candidate.ID, now)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
		}
		if ok {
			s.metrics.IncOTP(string(otpType), "verified")
			return true, nil
		}
	}
	s.metrics.IncOTP(string(otpType), "rejected")
	return false, nil
}

func (s *service) SweepExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, s.clock())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep expired otps")
	}
	return count, nil
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}
