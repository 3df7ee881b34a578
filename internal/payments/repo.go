package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/pagination"
)

// UniqueConstraint guards one payment per booking.
const UniqueConstraint = "payments_booking_id_key"

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindBooking loads the booking a payment settles, or nil when missing.
func (r *Repository) FindBooking(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindByGatewayID loads the payment correlated with a gateway intent, or nil.
func (r *Repository) FindByGatewayID(ctx context.Context, gatewayPaymentID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("gateway_payment_id = ?", gatewayPaymentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *Repository) ExistsForBooking(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).Where("booking_id = ?", bookingID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// MarkCompleted flips a pending payment to COMPLETED. It reports false when the
// payment was no longer pending.
func (r *Repository) MarkCompleted(ctx context.Context, id uuid.UUID, transactionID string, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.PaymentStatusCompleted,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
			"updated_at":     paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkFailed flips a pending payment to FAILED.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":     enums.PaymentStatusFailed,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) SetFinalPrice(ctx context.Context, bookingID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		UpdateColumns(map[string]any{"final_price": amount, "updated_at": at}).Error
}

type listPaymentsParams struct {
	UserID uuid.UUID
	Limit  int
	Cursor *pagination.Cursor
}

// List returns the user's payments newest first plus the cursor of the last row
// when another page exists.
func (r *Repository) List(ctx context.Context, params listPaymentsParams) ([]models.Payment, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).Model(&models.Payment{}).Where("user_id = ?", params.UserID)

	var rows []models.Payment
	if err := pagination.Keyset(query, params.Cursor).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Split(rows, params.Limit, func(p models.Payment) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return page, next, nil
}
