package notifications

import (
	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/pkg/db/models"
	dbtypes "github.com/homefix/homeservices-backend/pkg/db/types"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/outbox/payloads"
)

// Event is a notification effect produced by a business operation. ID is the
// outbox row that carries it once enqueued and doubles as the notification id.
type Event struct {
	ID      uuid.UUID
	UserID  uuid.UUID
	Title   string
	Message string
	Type    enums.NotificationType
	Data    map[string]any
}

func (e Event) toModel() *models.Notification {
	n := &models.Notification{
		ID:      e.ID,
		UserID:  e.UserID,
		Type:    e.Type,
		Title:   e.Title,
		Message: e.Message,
	}
	if len(e.Data) > 0 {
		n.Data = dbtypes.JSONMap(e.Data)
	}
	return n
}

func (e Event) payload() payloads.NotificationRequested {
	return payloads.NotificationRequested{
		UserID:  e.UserID,
		Title:   e.Title,
		Message: e.Message,
		Type:    e.Type,
		Data:    e.Data,
	}
}

// EventFromPayload rebuilds an Event from a stored outbox payload.
func EventFromPayload(outboxID uuid.UUID, p payloads.NotificationRequested) Event {
	return Event{
		ID:      outboxID,
		UserID:  p.UserID,
		Title:   p.Title,
		Message: p.Message,
		Type:    p.Type,
		Data:    p.Data,
	}
}
