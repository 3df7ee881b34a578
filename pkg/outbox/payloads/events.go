package payloads

import (
	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

// NotificationRequested asks the dispatcher to notify a single user.
type NotificationRequested struct {
	UserID  uuid.UUID              `json:"userId"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Type    enums.NotificationType `json:"type"`
	Data    map[string]any         `json:"data,omitempty"`
}
