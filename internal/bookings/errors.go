package bookings

import (
	"errors"

	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

var (
	ErrNotFound            = errors.New("booking not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrReasonRequired      = errors.New("cancellation reason required")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrServiceNotFound     = errors.New("service not found")
	ErrNotEligible         = errors.New("booking not eligible for review")
	ErrReviewExists        = errors.New("review already exists")
)

func notFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "booking not found")
}

func invalidTransition(msg string) error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrInvalidTransition, msg)
}

func reasonRequired() error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrReasonRequired, "cancellation reason is required")
}

func providerUnavailable() error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrProviderUnavailable, "provider is not available")
}

func serviceNotFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrServiceNotFound, "service not found or inactive")
}

func notEligible() error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNotEligible, "booking not found or not eligible for review")
}

func reviewExists() error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrReviewExists, "review already exists for this booking")
}
