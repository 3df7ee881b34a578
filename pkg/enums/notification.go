package enums

import "fmt"

// NotificationType classifies in-app notifications.
type NotificationType string

const (
	NotificationTypeBookingConfirmed NotificationType = "BOOKING_CONFIRMED"
	NotificationTypeBookingUpdated   NotificationType = "BOOKING_UPDATED"
	NotificationTypeBookingCancelled NotificationType = "BOOKING_CANCELLED"
	NotificationTypePaymentReceived  NotificationType = "PAYMENT_RECEIVED"
	NotificationTypeReviewReceived   NotificationType = "REVIEW_RECEIVED"
	NotificationTypeChatMessage      NotificationType = "CHAT_MESSAGE"
	NotificationTypeSystemUpdate     NotificationType = "SYSTEM_UPDATE"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBookingConfirmed,
	NotificationTypeBookingUpdated,
	NotificationTypeBookingCancelled,
	NotificationTypePaymentReceived,
	NotificationTypeReviewReceived,
	NotificationTypeChatMessage,
	NotificationTypeSystemUpdate,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
