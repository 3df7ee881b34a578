package bookings

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	"github.com/homefix/homeservices-backend/pkg/enums"
)

func TestCanTransitionTable(t *testing.T) {
	all := []enums.BookingStatus{
		enums.BookingStatusConfirmed,
		enums.BookingStatusInProgress,
		enums.BookingStatusCompleted,
		enums.BookingStatusCancelled,
	}
	allowed := map[enums.BookingStatus]map[enums.BookingStatus]bool{
		enums.BookingStatusConfirmed: {
			enums.BookingStatusInProgress: true,
			enums.BookingStatusCancelled:  true,
		},
		enums.BookingStatusInProgress: {
			enums.BookingStatusCompleted: true,
			enums.BookingStatusCancelled: true,
		},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []enums.BookingStatus{enums.BookingStatusCompleted, enums.BookingStatusCancelled} {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
		if len(AllowedTransitions(status)) != 0 {
			t.Fatalf("expected no transitions out of %s", status)
		}
	}
}

func TestInvalidTransitionNamesAllowedStatuses(t *testing.T) {
	booking := &models.Booking{
		ID:         uuid.New(),
		CustomerID: uuid.New(),
		ProviderID: uuid.New(),
		Status:     enums.BookingStatusConfirmed,
	}
	_, _, err := planTransition(booking, TransitionInput{
		BookingID: booking.ID,
		ActorID:   booking.ProviderID,
		Status:    enums.BookingStatusCompleted,
	}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Contains(t, err.Error(), "allowed: IN_PROGRESS, CANCELLED")

	booking.Status = enums.BookingStatusCancelled
	_, _, err = planTransition(booking, TransitionInput{
		BookingID: booking.ID,
		ActorID:   booking.CustomerID,
		Status:    enums.BookingStatusInProgress,
	}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed: none")
}
