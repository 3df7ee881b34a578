package bookings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

// CreateInput is a validated booking request; CustomerID is the caller.
type CreateInput struct {
	CustomerID     uuid.UUID
	ProviderID     uuid.UUID
	ServiceID      uuid.UUID
	ScheduledDate  time.Time
	ScheduledTime  string
	Address        string
	Latitude       *float64
	Longitude      *float64
	Description    *string
	EstimatedPrice decimal.Decimal
}

type TransitionInput struct {
	BookingID uuid.UUID
	ActorID   uuid.UUID
	Status    enums.BookingStatus
	Reason    string
}

type ReviewInput struct {
	BookingID  uuid.UUID
	ReviewerID uuid.UUID
	Rating     int
	Comment    *string
	Images     []string
}

// ListParams filters the caller's bookings.
type ListParams struct {
	UserID uuid.UUID
	Status *enums.BookingStatus
	Limit  int
	Cursor string
}

// Result is the updated booking plus the notification effects it produced.
type Result struct {
	Booking BookingDTO            `json:"booking"`
	ChatID  *uuid.UUID            `json:"chatId,omitempty"`
	Effects []notifications.Event `json:"-"`
}

type ReviewResult struct {
	Review         ReviewDTO             `json:"review"`
	ProviderRating float64               `json:"providerRating"`
	TotalReviews   int                   `json:"totalReviews"`
	Effects        []notifications.Event `json:"-"`
}

type BookingDTO struct {
	ID                 uuid.UUID           `json:"id"`
	CustomerID         uuid.UUID           `json:"customerId"`
	ProviderID         uuid.UUID           `json:"providerId"`
	ServiceID          uuid.UUID           `json:"serviceId"`
	ScheduledDate      time.Time           `json:"scheduledDate"`
	ScheduledTime      string              `json:"scheduledTime"`
	Address            string              `json:"address"`
	Latitude           *float64            `json:"latitude,omitempty"`
	Longitude          *float64            `json:"longitude,omitempty"`
	Description        *string             `json:"description,omitempty"`
	Status             enums.BookingStatus `json:"status"`
	EstimatedPrice     decimal.Decimal     `json:"estimatedPrice"`
	FinalPrice         *decimal.Decimal    `json:"finalPrice,omitempty"`
	CompletedAt        *time.Time          `json:"completedAt,omitempty"`
	CancelledAt        *time.Time          `json:"cancelledAt,omitempty"`
	CancellationReason *string             `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

type ReviewDTO struct {
	ID         uuid.UUID `json:"id"`
	BookingID  uuid.UUID `json:"bookingId"`
	UserID     uuid.UUID `json:"userId"`
	ProviderID uuid.UUID `json:"providerId"`
	Rating     int       `json:"rating"`
	Comment    *string   `json:"comment,omitempty"`
	Images     []string  `json:"images"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ServiceSummary struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"basePrice"`
	Unit     string          `json:"unit"`
}

type PaymentSummary struct {
	ID     uuid.UUID           `json:"id"`
	Amount decimal.Decimal     `json:"amount"`
	Status enums.PaymentStatus `json:"status"`
	PaidAt *time.Time          `json:"paidAt,omitempty"`
}

// Detail is the booking page: the booking with its service, chat, review and payment.
type Detail struct {
	BookingDTO
	Service *ServiceSummary `json:"service,omitempty"`
	ChatID  *uuid.UUID      `json:"chatId,omitempty"`
	Review  *ReviewDTO      `json:"review,omitempty"`
	Payment *PaymentSummary `json:"payment,omitempty"`
}

type ListResult struct {
	Items  []BookingDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

func bookingFromModel(b *models.Booking) BookingDTO {
	return BookingDTO{
		ID:                 b.ID,
		CustomerID:         b.CustomerID,
		ProviderID:         b.ProviderID,
		ServiceID:          b.ServiceID,
		ScheduledDate:      b.ScheduledDate,
		ScheduledTime:      b.ScheduledTime,
		Address:            b.Address,
		Latitude:           b.Latitude,
		Longitude:          b.Longitude,
		Description:        b.Description,
		Status:             b.Status,
		EstimatedPrice:     b.EstimatedPrice,
		FinalPrice:         b.FinalPrice,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		CancellationReason: b.CancellationReason,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

func reviewFromModel(r *models.Review) ReviewDTO {
	images := []string(r.Images)
	if images == nil {
		images = []string{}
	}
	return ReviewDTO{
		ID:         r.ID,
		BookingID:  r.BookingID,
		UserID:     r.UserID,
		ProviderID: r.ProviderID,
		Rating:     r.Rating,
		Comment:    r.Comment,
		Images:     images,
		CreatedAt:  r.CreatedAt,
	}
}
