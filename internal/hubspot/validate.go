package hubspot

import (
	"fmt"
	"strings"

	"github.com/shohag/hsdest/internal/models"
)

// FilterMessage gates a message by type. Identify messages must carry a
// resolvable email; track messages are always accepted.
func FilterMessage(msg *models.Message) (models.Event, error) {
	if msg == nil {
		return nil, newError(KindInvalidInput, "message is required", nil)
	}

	switch models.EventType(strings.ToLower(msg.Type)) {
	case models.EventIdentify:
		email := GetFieldValueFromMessage(msg, "email")
		if email == nil {
			return nil, newError(KindMissingRequiredField, "identify without email is not supported", nil)
		}
		return &models.IdentifyEvent{Message: msg, Email: fmt.Sprint(email)}, nil
	case models.EventTrack:
		return &models.TrackEvent{Message: msg}, nil
	default:
		return nil, newError(KindUnsupportedType, fmt.Sprintf("message type %q is not supported", msg.Type), nil)
	}
}
