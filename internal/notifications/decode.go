package notifications

import (
	"encoding/json"
	"errors"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
)

var errEmptyPayload = errors.New("empty event payload")

// DecodeOrderPlaced accepts either the outbox envelope or a bare event, so
// producers that do not use the outbox can still publish. The returned event
// id is empty for bare events.
func DecodeOrderPlaced(data []byte) (payloads.OrderPlacedEvent, string, error) {
	var event payloads.OrderPlacedEvent
	if len(data) == 0 {
		return event, "", errEmptyPayload
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return event, "", err
	}
	if len(envelope.Data) > 0 && string(envelope.Data) != "null" {
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return event, "", err
		}
		return event, envelope.EventID, nil
	}

	if err := json.Unmarshal(data, &event); err != nil {
		return event, "", err
	}
	return event, "", nil
}
