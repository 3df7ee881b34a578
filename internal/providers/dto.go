package providers

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/db/models"
)

// ProfileDTO is the public provider profile with its running aggregates.
type ProfileDTO struct {
	UserID            uuid.UUID       `json:"userId"`
	Bio               *string         `json:"bio,omitempty"`
	HourlyRate        decimal.Decimal `json:"hourlyRate"`
	ExperienceYears   int             `json:"experienceYears"`
	IsVerified        bool            `json:"isVerified"`
	IsAvailable       bool            `json:"isAvailable"`
	Rating            float64         `json:"rating"`
	TotalReviews      int             `json:"totalReviews"`
	TotalBookings     int             `json:"totalBookings"`
	CompletedBookings int             `json:"completedBookings"`
	User              *users.UserDTO  `json:"user,omitempty"`
}

func FromModel(p *models.ServiceProvider) *ProfileDTO {
	if p == nil {
		return nil
	}
	return &ProfileDTO{
		UserID:            p.UserID,
		Bio:               p.Bio,
		HourlyRate:        p.HourlyRate,
		ExperienceYears:   p.ExperienceYears,
		IsVerified:        p.IsVerified,
		IsAvailable:       p.IsAvailable,
		Rating:            p.Rating,
		TotalReviews:      p.TotalReviews,
		TotalBookings:     p.TotalBookings,
		CompletedBookings: p.CompletedBookings,
		User:              users.FromModel(p.User),
	}
}

// SortOrder picks how Search orders providers.
type SortOrder string

const (
	SortByRating     SortOrder = "rating"
	SortByPrice      SortOrder = "price"
	SortByExperience SortOrder = "experience"
)

// ParseSortOrder maps the sortBy query value, defaulting to rating.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch order := SortOrder(strings.ToLower(strings.TrimSpace(raw))); order {
	case "":
		return SortByRating, true
	case SortByRating, SortByPrice, SortByExperience:
		return order, true
	}
	return "", false
}

func (o SortOrder) orderClause() string {
	switch o {
	case SortByPrice:
		return "service_providers.hourly_rate ASC, service_providers.rating DESC, service_providers.user_id ASC"
	case SortByExperience:
		return "service_providers.experience_years DESC, service_providers.rating DESC, service_providers.user_id ASC"
	}
	return "service_providers.rating DESC, service_providers.total_reviews DESC, service_providers.user_id ASC"
}

// SearchParams filters provider discovery. Zero values disable a filter.
type SearchParams struct {
	Category  string
	City      string
	MinRating float64
	MaxPrice  *decimal.Decimal
	SortBy    SortOrder
	Page      int
	Limit     int
}

type SearchResult struct {
	Items []PublicProfileDTO `json:"items"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
	Total int64              `json:"total"`
	Pages int                `json:"pages"`
}

// OfferedServiceDTO is a catalog entry as listed on a provider's page.
type OfferedServiceDTO struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	BasePrice decimal.Decimal `json:"basePrice"`
	Unit      string          `json:"unit"`
}

type RecentReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	Rating       int       `json:"rating"`
	Comment      *string   `json:"comment,omitempty"`
	ReviewerName string    `json:"reviewerName"`
	ServiceName  string    `json:"serviceName"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DetailDTO is the public provider page: profile, offered services and the
// latest reviews.
type DetailDTO struct {
	Provider PublicProfileDTO    `json:"provider"`
	Services []OfferedServiceDTO `json:"services"`
	Reviews  []RecentReviewDTO   `json:"reviews"`
}

// PublicProfileDTO is what anonymous visitors see: no contact details or
// identity documents.
type PublicProfileDTO struct {
	UserID            uuid.UUID       `json:"userId"`
	Name              string          `json:"name"`
	City              *string         `json:"city,omitempty"`
	State             *string         `json:"state,omitempty"`
	Bio               *string         `json:"bio,omitempty"`
	HourlyRate        decimal.Decimal `json:"hourlyRate"`
	ExperienceYears   int             `json:"experienceYears"`
	IsVerified        bool            `json:"isVerified"`
	IsAvailable       bool            `json:"isAvailable"`
	Rating            float64         `json:"rating"`
	TotalReviews      int             `json:"totalReviews"`
	CompletedBookings int             `json:"completedBookings"`
}

func publicFromModel(p *models.ServiceProvider) PublicProfileDTO {
	dto := PublicProfileDTO{
		UserID:            p.UserID,
		Bio:               p.Bio,
		HourlyRate:        p.HourlyRate,
		ExperienceYears:   p.ExperienceYears,
		IsVerified:        p.IsVerified,
		IsAvailable:       p.IsAvailable,
		Rating:            p.Rating,
		TotalReviews:      p.TotalReviews,
		CompletedBookings: p.CompletedBookings,
	}
	if p.User != nil {
		dto.Name = p.User.Name
		dto.City = p.User.City
		dto.State = p.User.State
	}
	return dto
}
