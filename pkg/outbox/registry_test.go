package outbox

import (
	"encoding/json"
	"testing"

	"github.com/homefix/homeservices-backend/pkg/enums"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventNotificationRequested, 1, func(payload json.RawMessage) (interface{}, error) {
		var out map[string]any
		err := json.Unmarshal(payload, &out)
		return out, err
	})

	decoded, err := reg.Decode(enums.EventNotificationRequested, 1, json.RawMessage(`{"title":"hi"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.(map[string]any)["title"] != "hi" {
		t.Fatalf("unexpected decoded payload %v", decoded)
	}

	if _, err := reg.Decode(enums.EventNotificationRequested, 2, nil); err == nil {
		t.Fatal("expected unregistered version to fail")
	}
}
