package bookings

import (
	"strings"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

var transitions = map[enums.BookingStatus][]enums.BookingStatus{
	enums.BookingStatusConfirmed:  {enums.BookingStatusInProgress, enums.BookingStatusCancelled},
	enums.BookingStatusInProgress: {enums.BookingStatusCompleted, enums.BookingStatusCancelled},
	enums.BookingStatusCompleted:  nil,
	enums.BookingStatusCancelled:  nil,
}

// AllowedTransitions lists the statuses reachable from from.
func AllowedTransitions(from enums.BookingStatus) []enums.BookingStatus {
	return transitions[from]
}

// CanTransition reports whether a booking in from may move to to.
func CanTransition(from, to enums.BookingStatus) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func describeAllowed(from enums.BookingStatus) string {
	next := AllowedTransitions(from)
	if len(next) == 0 {
		return "none"
	}
	names := make([]string, len(next))
	for i, status := range next {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}
