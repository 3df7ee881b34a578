package payments

import (
	"errors"

	pkgerrors "github.com/homefix/homeservices-backend/pkg/errors"
)

var (
	ErrNotFound      = errors.New("payment not found")
	ErrExists        = errors.New("payment already exists")
	ErrNotEligible   = errors.New("booking not eligible for payment")
	ErrNotSuccessful = errors.New("payment not successful")
)

func notFound() error {
	return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "payment not found")
}

func paymentExists() error {
	return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrExists, "a payment already exists for this booking")
}

func notEligible() error {
	return pkgerrors.Wrap(pkgerrors.CodeStateConflict, ErrNotEligible, "booking not found or not awaiting payment")
}

func notSuccessful(status string) error {
	return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrNotSuccessful, "payment not successful").
		WithDetails(map[string]any{"gatewayStatus": status})
}
