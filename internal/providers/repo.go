package providers

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
)

// CreateProfileDTO captures the optional provider fields supplied at registration.
type CreateProfileDTO struct {
	UserID          uuid.UUID
	Bio             *string
	HourlyRate      decimal.Decimal
	ExperienceYears int
}

// ToModel builds a new, available profile with empty aggregates.
func (dto CreateProfileDTO) ToModel() *models.ServiceProvider {
	return &models.ServiceProvider{
		UserID:          dto.UserID,
		Bio:             dto.Bio,
		HourlyRate:      dto.HourlyRate,
		ExperienceYears: dto.ExperienceYears,
		IsAvailable:     true,
	}
}

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

func (r *Repository) Create(ctx context.Context, dto CreateProfileDTO) (*models.ServiceProvider, error) {
	profile := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return nil, err
	}
	return profile, nil
}

// FindByUserID loads a profile with its user, or nil when missing.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.ServiceProvider, error) {
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

// SetAvailability reports false when no profile exists for userID.
func (r *Repository) SetAvailability(ctx context.Context, userID uuid.UUID, available bool, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Where("user_id = ?", userID).
		UpdateColumns(map[string]any{"is_available": available, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type searchQuery struct {
	Category  string
	City      string
	MinRating float64
	MaxPrice  *decimal.Decimal
	SortBy    SortOrder
	Offset    int
	Limit     int
}

// Search lists available providers whose user is active, plus the total
// match count ignoring offset and limit.
func (r *Repository) Search(ctx context.Context, q searchQuery) ([]models.ServiceProvider, int64, error) {
	base := r.db.WithContext(ctx).
		Model(&models.ServiceProvider{}).
		Joins("JOIN users ON users.id = service_providers.user_id").
		Where("service_providers.is_available = ? AND users.is_active = ?", true, true)
	if q.Category != "" {
		base = base.Where(`EXISTS (
			SELECT 1 FROM provider_services ps
			JOIN services s ON s.id = ps.service_id
			WHERE ps.provider_id = service_providers.user_id AND s.category = ? AND s.is_active = ?)`, q.Category, true)
	}
	if q.City != "" {
		base = base.Where(`LOWER(COALESCE(users.city, '')) LIKE ? ESCAPE '\'`, db.ContainsPattern(q.City))
	}
	if q.MinRating > 0 {
		base = base.Where("service_providers.rating >= ?", q.MinRating)
	}
	if q.MaxPrice != nil {
		base = base.Where("service_providers.hourly_rate <= ?", *q.MaxPrice)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ServiceProvider
	err := base.Session(&gorm.Session{}).
		Preload("User").
		Order(q.SortBy.orderClause()).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&rows).Error
	return rows, total, err
}

// OfferedServices lists the active catalog entries a provider offers.
func (r *Repository) OfferedServices(ctx context.Context, providerID uuid.UUID) ([]models.Service, error) {
	var rows []models.Service
	err := r.db.WithContext(ctx).
		Model(&models.Service{}).
		Joins("JOIN provider_services ps ON ps.service_id = services.id").
		Where("ps.provider_id = ? AND services.is_active = ?", providerID, true).
		Order("services.name ASC").
		Find(&rows).Error
	return rows, err
}

// AddService links providerID to serviceID; linking twice is a no-op.
func (r *Repository) AddService(ctx context.Context, providerID, serviceID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ProviderService{ProviderID: providerID, ServiceID: serviceID}).Error
}

type reviewRow struct {
	ID           uuid.UUID
	Rating       int
	Comment      *string
	CreatedAt    time.Time
	ReviewerName string
	ServiceName  string
}

// RecentReviews returns up to limit reviews for providerID, newest first,
// with the reviewer's name and the booked service's name.
func (r *Repository) RecentReviews(ctx context.Context, providerID uuid.UUID, limit int) ([]reviewRow, error) {
	var rows []reviewRow
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("reviews.id, reviews.rating, reviews.comment, reviews.created_at, users.name AS reviewer_name, services.name AS service_name").
		Joins("JOIN users ON users.id = reviews.user_id").
		Joins("JOIN bookings ON bookings.id = reviews.booking_id").
		Joins("JOIN services ON services.id = bookings.service_id").
		Where("reviews.provider_id = ?", providerID).
		Order("reviews.created_at DESC, reviews.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
