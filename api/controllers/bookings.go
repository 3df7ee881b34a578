package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/homefix/homeservices-backend/api/middleware"
	"github.com/homefix/homeservices-backend/api/responses"
	"github.com/homefix/homeservices-backend/api/validators"
	"github.com/homefix/homeservices-backend/internal/bookings"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

const (
	scheduledDateLayout = "2006-01-02"
	maxAddressLength    = 500
	maxTextLength       = 2000
)

type createBookingRequest struct {
	ProviderID     string          `json:"providerId" validate:"required,uuid"`
	ServiceID      string          `json:"serviceId" validate:"required,uuid"`
	ScheduledDate  string          `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	ScheduledTime  string          `json:"scheduledTime" validate:"required"`
	Address        string          `json:"address" validate:"required"`
	Latitude       *float64        `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude      *float64        `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Description    *string         `json:"description,omitempty"`
	EstimatedPrice decimal.Decimal `json:"estimatedPrice"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED IN_PROGRESS COMPLETED CANCELLED"`
	Reason string `json:"reason,omitempty"`
}

type reviewRequest struct {
	Rating  int      `json:"rating" validate:"required,min=1,max=5"`
	Comment *string  `json:"comment,omitempty"`
	Images  []string `json:"images,omitempty" validate:"omitempty,max=5,dive,url"`
}

// CreateBooking books a provider on behalf of the calling customer.
func CreateBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		customerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createBookingRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := body.toInput(customerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func (b createBookingRequest) toInput(customerID uuid.UUID) (bookings.CreateInput, error) {
	date, err := time.Parse(scheduledDateLayout, b.ScheduledDate)
	if err != nil {
		return bookings.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scheduledDate")
	}
	input := bookings.CreateInput{
		CustomerID:     customerID,
		ProviderID:     uuid.MustParse(b.ProviderID),
		ServiceID:      uuid.MustParse(b.ServiceID),
		ScheduledDate:  date.UTC(),
		ScheduledTime:  strings.TrimSpace(b.ScheduledTime),
		Address:        validators.SanitizeString(b.Address, maxAddressLength),
		Latitude:       b.Latitude,
		Longitude:      b.Longitude,
		EstimatedPrice: b.EstimatedPrice,
	}
	if b.Description != nil {
		desc := validators.SanitizeString(*b.Description, maxTextLength)
		input.Description = &desc
	}
	return input, nil
}

// ListBookings pages through bookings where the caller is customer or provider.
func ListBookings(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := bookings.ListParams{
			UserID: userID,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseBookingStatus(strings.ToUpper(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			params.Status = &status
		}

		result, err := svc.ListForUser(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), bookingID, userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// UpdateBookingStatus moves a booking along its lifecycle.
func UpdateBookingStatus(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		actorID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithBookingID(ctx, bookingID.String())
		}

		result, err := svc.Transition(ctx, bookings.TransitionInput{
			BookingID: bookingID,
			ActorID:   actorID,
			Status:    enums.BookingStatus(body.Status),
			Reason:    validators.SanitizeString(body.Reason, maxTextLength),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ReviewBooking attaches the customer's review to a completed booking.
func ReviewBooking(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "bookings service unavailable"))
			return
		}

		reviewerID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		bookingID, err := validators.ParseUUIDParam(r, "bookingID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body reviewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := bookings.ReviewInput{
			BookingID:  bookingID,
			ReviewerID: reviewerID,
			Rating:     body.Rating,
			Images:     body.Images,
		}
		if body.Comment != nil {
			comment := validators.SanitizeString(*body.Comment, maxTextLength)
			input.Comment = &comment
		}

		result, err := svc.AttachReview(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
