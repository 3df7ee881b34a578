package bookings

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/internal/ratings"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	dbtypes "github.com/homefix/homeservices-backend/pkg/db/types"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

var scheduledTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func validateCreate(input CreateInput) error {
	switch {
	case input.CustomerID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	case input.ProviderID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "provider id is required")
	case input.ServiceID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "service id is required")
	case input.CustomerID == input.ProviderID:
		return pkgerrors.New(pkgerrors.CodeValidation, "cannot book yourself")
	case input.ScheduledDate.IsZero():
		return pkgerrors.New(pkgerrors.CodeValidation, "scheduled date is required")
	case !scheduledTimePattern.MatchString(input.ScheduledTime):
		return pkgerrors.New(pkgerrors.CodeValidation, "scheduled time must be HH:MM")
	case strings.TrimSpace(input.Address) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address is required")
	case !input.EstimatedPrice.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "estimated price must be positive")
	}
	return nil
}

// planCreate checks availability and builds the booking, its chat thread, and
// the provider notification.
func planCreate(input CreateInput, provider *models.ServiceProvider, service *models.Service) (*models.Booking, *models.Chat, []notifications.Event, error) {
	if provider == nil || provider.User == nil ||
		!provider.User.IsActive ||
		provider.User.Role != enums.UserRoleServiceProvider ||
		!provider.IsAvailable {
		return nil, nil, nil, providerUnavailable()
	}
	if service == nil || !service.IsActive {
		return nil, nil, nil, serviceNotFound()
	}

	booking := &models.Booking{
		ID:             uuid.New(),
		CustomerID:     input.CustomerID,
		ProviderID:     input.ProviderID,
		ServiceID:      input.ServiceID,
		ScheduledDate:  input.ScheduledDate.UTC(),
		ScheduledTime:  input.ScheduledTime,
		Address:        strings.TrimSpace(input.Address),
		Latitude:       input.Latitude,
		Longitude:      input.Longitude,
		Description:    input.Description,
		Status:         enums.BookingStatusConfirmed,
		EstimatedPrice: input.EstimatedPrice,
	}
	chat := &models.Chat{
		BookingID:  booking.ID,
		CustomerID: booking.CustomerID,
		ProviderID: booking.ProviderID,
	}
	effects := []notifications.Event{{
		UserID:  booking.ProviderID,
		Title:   "New Booking Request",
		Message: fmt.Sprintf("You have a new booking request for %s", service.Name),
		Type:    enums.NotificationTypeBookingConfirmed,
		Data:    map[string]any{"bookingId": booking.ID.String()},
	}}
	return booking, chat, effects, nil
}

// transitionPlan is the column set a transition writes, guarded by From.
type transitionPlan struct {
	From    enums.BookingStatus
	To      enums.BookingStatus
	Updates map[string]any
	// CompleteProvider bumps the provider's completed_bookings counter.
	CompleteProvider bool
}

func planTransition(booking *models.Booking, input TransitionInput, now time.Time) (*transitionPlan, []notifications.Event, error) {
	if booking == nil || !booking.Involves(input.ActorID) {
		return nil, nil, notFound()
	}
	if !input.Status.IsValid() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid booking status")
	}
	if !CanTransition(booking.Status, input.Status) {
		return nil, nil, invalidTransition(fmt.Sprintf("cannot move booking from %s to %s (allowed: %s)",
			booking.Status, input.Status, describeAllowed(booking.Status)))
	}

	plan := &transitionPlan{
		From:    booking.Status,
		To:      input.Status,
		Updates: map[string]any{"status": input.Status, "updated_at": now},
	}
	switch input.Status {
	case enums.BookingStatusCompleted:
		plan.Updates["completed_at"] = now
		plan.CompleteProvider = true
	case enums.BookingStatusCancelled:
		reason := strings.TrimSpace(input.Reason)
		if reason == "" {
			return nil, nil, reasonRequired()
		}
		plan.Updates["cancelled_at"] = now
		plan.Updates["cancellation_reason"] = reason
	}

	event := notifications.Event{
		UserID:  booking.Counterpart(input.ActorID),
		Title:   "Booking Updated",
		Message: fmt.Sprintf("Your booking status has been updated to %s", input.Status),
		Type:    enums.NotificationTypeBookingUpdated,
		Data: map[string]any{
			"bookingId": booking.ID.String(),
			"status":    string(input.Status),
		},
	}
	if input.Status == enums.BookingStatusCancelled {
		event.Title = "Booking Cancelled"
		event.Message = "Your booking has been cancelled"
		event.Type = enums.NotificationTypeBookingCancelled
	}
	return plan, []notifications.Event{event}, nil
}

func validateReview(input ReviewInput) error {
	if input.BookingID == uuid.Nil || input.ReviewerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "booking id and reviewer id are required")
	}
	if !ratings.ValidRating(input.Rating) {
		return pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}
	return nil
}

// planReview checks eligibility and builds the review with the provider notification.
func planReview(booking *models.Booking, input ReviewInput) (*models.Review, []notifications.Event, error) {
	if booking == nil ||
		booking.Status != enums.BookingStatusCompleted ||
		booking.CustomerID != input.ReviewerID {
		return nil, nil, notEligible()
	}

	images := make(dbtypes.StringList, 0, len(input.Images))
	for _, img := range input.Images {
		if trimmed := strings.TrimSpace(img); trimmed != "" {
			images = append(images, trimmed)
		}
	}
	review := &models.Review{
		BookingID:  booking.ID,
		UserID:     input.ReviewerID,
		ProviderID: booking.ProviderID,
		Rating:     input.Rating,
		Comment:    input.Comment,
		Images:     images,
	}
	effects := []notifications.Event{{
		UserID:  booking.ProviderID,
		Title:   "New Review",
		Message: fmt.Sprintf("You received a %d-star review", input.Rating),
		Type:    enums.NotificationTypeReviewReceived,
		Data: map[string]any{
			"bookingId": booking.ID.String(),
			"rating":    input.Rating,
		},
	}}
	return review, effects, nil
}
