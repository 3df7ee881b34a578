package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/homefix/homeservices-backend/api/middleware"
	"github.com/homefix/homeservices-backend/api/responses"
	"github.com/homefix/homeservices-backend/api/validators"
	"github.com/homefix/homeservices-backend/internal/providers"
	"github.com/homefix/homeservices-backend/internal/users"
	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
	"github.com/homefix/homeservices-backend/pkg/logger"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type profileUpdater interface {
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate, at time.Time) (*models.User, error)
}

type profileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=100"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	City    *string `json:"city" validate:"omitempty,max=100"`
	State   *string `json:"state" validate:"omitempty,max=100"`
	Pincode *string `json:"pincode" validate:"omitempty,len=6,numeric"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"isAvailable" validate:"required"`
}

type meResponse struct {
	User     *users.UserDTO        `json:"user"`
	Provider *providers.ProfileDTO `json:"provider,omitempty"`
}

// UsersMe returns the caller's profile, with provider details for providers.
func UsersMe(finder userFinder, profiles providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if finder == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users unavailable"))
			return
		}

		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := finder.FindByID(r.Context(), userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup user"))
			return
		}

		resp := meResponse{User: users.FromModel(user)}
		if user.Role == enums.UserRoleServiceProvider && profiles != nil {
			profile, err := profiles.Get(r.Context(), userID)
			if err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			resp.Provider = profile
		}
		responses.WriteSuccess(w, resp)
	}
}

// UpdateAvailability toggles whether the calling provider accepts new bookings.
func UpdateAvailability(profiles providers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if profiles == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "providers unavailable"))
			return
		}

		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body availabilityRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := profiles.SetAvailability(r.Context(), userID, *body.IsAvailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// UpdateProfile edits the caller's name and address. Omitted or blank fields
// keep their stored value.
func UpdateProfile(updater profileUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if updater == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "users unavailable"))
			return
		}

		userID, err := middleware.CallerID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body profileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := updater.UpdateProfile(r.Context(), userID, users.ProfileUpdate{
			Name:    body.Name,
			Address: body.Address,
			City:    body.City,
			State:   body.State,
			Pincode: body.Pincode,
		}, time.Now().UTC())
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "user not found"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update profile"))
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}
