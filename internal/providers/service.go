package providers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

// Service exposes the provider profile surface.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error)
	SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*ProfileDTO, error)
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)
	Detail(ctx context.Context, userID uuid.UUID) (*DetailDTO, error)
}

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
	// RecentReviewLimit caps the reviews shown on a provider page.
	RecentReviewLimit = 10
)

type service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "providers repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*ProfileDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider profile")
	}
	if profile == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "provider profile not found")
	}
	return FromModel(profile), nil
}

func (s *service) SetAvailability(ctx context.Context, userID uuid.UUID, available bool) (*ProfileDTO, error) {
	updated, err := s.repo.SetAvailability(ctx, userID, available, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update availability")
	}
	if !updated {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only service providers can change availability")
	}
	return s.Get(ctx, userID)
}

func (s *service) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.MinRating < 0 || params.MinRating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minRating must be between 0 and 5")
	}
	if params.MaxPrice != nil && params.MaxPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "maxPrice must not be negative")
	}
	sortBy, ok := ParseSortOrder(string(params.SortBy))
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sortBy must be one of rating, price, experience")
	}
	page := params.Page
	if page < 1 {
		page = 1
	}
	limit := params.Limit
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	rows, total, err := s.repo.Search(ctx, searchQuery{
		Category:  strings.TrimSpace(params.Category),
		City:      strings.TrimSpace(params.City),
		MinRating: params.MinRating,
		MaxPrice:  params.MaxPrice,
		SortBy:    sortBy,
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search providers")
	}

	items := make([]PublicProfileDTO, 0, len(rows))
	for i := range rows {
		items = append(items, publicFromModel(&rows[i]))
	}
	return &SearchResult{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
		Pages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *service) Detail(ctx context.Context, userID uuid.UUID) (*DetailDTO, error) {
	profile, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider profile")
	}
	if profile == nil || profile.User == nil || !profile.User.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "service provider not found")
	}

	offered, err := s.repo.OfferedServices(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider services")
	}
	reviews, err := s.repo.RecentReviews(ctx, userID, RecentReviewLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load provider reviews")
	}

	detail := &DetailDTO{
		Provider: publicFromModel(profile),
		Services: make([]OfferedServiceDTO, 0, len(offered)),
		Reviews:  make([]RecentReviewDTO, 0, len(reviews)),
	}
	for _, svc := range offered {
		detail.Services = append(detail.Services, OfferedServiceDTO{
			ID:        svc.ID,
			Name:      svc.Name,
			Category:  svc.Category,
			BasePrice: svc.BasePrice,
			Unit:      svc.Unit,
		})
	}
	for _, r := range reviews {
		detail.Reviews = append(detail.Reviews, RecentReviewDTO{
			ID:           r.ID,
			Rating:       r.Rating,
			Comment:      r.Comment,
			ReviewerName: r.ReviewerName,
			ServiceName:  r.ServiceName,
			CreatedAt:    r.CreatedAt,
		})
	}
	return detail, nil
}
