package otp

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

// candidateLimit bounds how many matching codes a single verify will try to consume.
const candidateLimit = 5

// Repository persists OTP records.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, record *models.OTP) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// FindUsable lists unused, unexpired records for phone+code+type, newest first.
func (r *Repository) FindUsable(ctx context.Context, phone, code string, otpType enums.OTPType, now time.Time) ([]models.OTP, error) {
	var rows []models.OTP
	err := r.db.WithContext(ctx).
		Where("phone = ? AND code = ? AND type = ?", phone, code, otpType).
		Where("verified = ? AND expires_at > ?", false, now).
		Order("created_at DESC").
		Limit(candidateLimit).
		Find(&rows).Error
	return rows, err
}

// Consume flips verified to true only if the row is still usable at now.
// Exactly one concurrent caller observes true.
func (r *Repository) Consume(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OTP{}).
		Where("id = ? AND verified = ? AND expires_at > ?", id, false, now).
		UpdateColumn("verified", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpired removes every record whose expiry is before now, verified or not.
func (r *Repository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}
