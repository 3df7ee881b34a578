package main

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/homefix/homeservices-backend/internal/notifications"
	"github.com/homefix/homeservices-backend/pkg/enums"
	"github.com/homefix/homeservices-backend/pkg/outbox"
	"github.com/homefix/homeservices-backend/pkg/outbox/payloads"
)

func newDecoderRegistry() *outbox.DecoderRegistry {
	reg := outbox.NewDecoderRegistry()
	reg.Register(enums.EventNotificationRequested, 1, func(payload json.RawMessage) (interface{}, error) {
		var p payloads.NotificationRequested
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return notifications.EventFromPayload(uuid.Nil, p), nil
	})
	return reg
}
