package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/pkg/db"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

type ServiceDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	Category    string          `json:"category"`
	BasePrice   decimal.Decimal `json:"basePrice"`
	Unit        string          `json:"unit"`
}

// CategoryCount is one category with its number of active services.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// ListFilter narrows the active catalog. Search matches name or description,
// case-insensitively.
type ListFilter struct {
	Category string
	Search   string
}

// Service lists the bookable service catalog.
type Service interface {
	ListActive(ctx context.Context, filter ListFilter) ([]ServiceDTO, error)
	Categories(ctx context.Context) ([]CategoryCount, error)
}

type service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database required")
	}
	return &service{db: db}, nil
}

func (s *service) ListActive(ctx context.Context, filter ListFilter) ([]ServiceDTO, error) {
	query := s.db.WithContext(ctx).Model(&models.Service{}).Where("is_active = ?", true)
	if c := strings.TrimSpace(filter.Category); c != "" {
		query = query.Where("category = ?", c)
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		pattern := db.ContainsPattern(term)
		query = query.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	var rows []models.Service
	if err := query.Order("category ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list services")
	}
	out := make([]ServiceDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, ServiceDTO{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Category:    row.Category,
			BasePrice:   row.BasePrice,
			Unit:        row.Unit,
		})
	}
	return out, nil
}

func (s *service) Categories(ctx context.Context) ([]CategoryCount, error) {
	var out []CategoryCount
	err := s.db.WithContext(ctx).
		Model(&models.Service{}).
		Select("category, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("category").
		Order("category ASC").
		Scan(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count categories")
	}
	return out, nil
}
