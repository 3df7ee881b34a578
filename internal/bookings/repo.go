package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/pagination"
)

// Repository persists bookings and the rows that hang off them.
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

// FindProvider loads a provider profile with its user, or nil when missing.
func (r *Repository) FindProvider(ctx context.Context, userID uuid.UUID) (*models.ServiceProvider, error) {
	var profile models.ServiceProvider
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindService loads a catalog service, or nil when missing.
func (r *Repository) FindService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&svc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (r *Repository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *Repository) CreateChat(ctx context.Context, chat *models.Chat) error {
	return r.db.WithContext(ctx).Create(chat).Error
}

// FindByID loads a booking, or nil when missing.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
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

// ApplyTransition writes plan only if the booking still holds plan.From.
func (r *Repository) ApplyTransition(ctx context.Context, bookingID uuid.UUID, plan *transitionPlan) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ? AND status = ?", bookingID, plan.From).
		UpdateColumns(plan.Updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementCompleted bumps completed_bookings; total_bookings is left alone.
func (r *Repository) IncrementCompleted(ctx context.Context, providerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("user_id = ?", providerID).
		UpdateColumn("completed_bookings", gorm.Expr("completed_bookings + 1")).Error
}

func (r *Repository) ReviewExists(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Review{}).Where("booking_id = ?", bookingID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateReview(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// isReviewConflict matches the one-review-per-booking index on Postgres and SQLite.
func isReviewConflict(err error) bool {
	return db.IsUniqueViolation(err, models.ReviewBookingUniqueConstraint) ||
		db.IsUniqueViolation(err, "reviews.booking_id")
}

func (r *Repository) FindReview(ctx context.Context, bookingID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *Repository) FindChat(ctx context.Context, bookingID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *Repository) FindPayment(ctx context.Context, bookingID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).Where("booking_id = ?", bookingID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

type listBookingsParams struct {
	UserID uuid.UUID
	Status *enums.BookingStatus
	Limit  int
	Cursor *pagination.Cursor
}

// List returns the user's bookings as customer or provider, newest first.
func (r *Repository) List(ctx context.Context, params listBookingsParams) ([]models.Booking, *pagination.Cursor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("(customer_id = ? OR provider_id = ?)", params.UserID, params.UserID)
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var rows []models.Booking
	if err := pagination.Keyset(query, params.Cursor).Limit(pagination.LimitWithBuffer(params.Limit)).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	page, next := pagination.Split(rows, params.Limit, func(b models.Booking) pagination.Cursor {
		return pagination.Cursor{CreatedAt: b.CreatedAt, ID: b.ID}
	})
	return page, next, nil
}
