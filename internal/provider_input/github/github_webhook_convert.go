package github

import (
	"encoding/json"

	"github.com/prreview/internal/apperrors"
)

// ParseEvent builds a WebhookEvent from the event header and raw body. A body
// that is not a JSON object is a validation error.
func ParseEvent(eventType string, body []byte) (WebhookEvent, error) {
	event := WebhookEvent{EventType: eventType}

	if err := json.Unmarshal(body, &event.RawPayload); err != nil {
		return event, apperrors.Validation("payload is not a JSON object: " + err.Error())
	}

	var payload pullRequestPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return event, apperrors.Validation("malformed payload: " + err.Error())
	}

	if payload.Action != nil {
		event.Action = *payload.Action
	}
	if payload.Repository != nil && payload.Repository.FullName != nil {
		event.RepositoryFullName = *payload.Repository.FullName
	}
	if payload.PullRequest != nil && payload.PullRequest.Number != nil {
		event.PRNumber = *payload.PullRequest.Number
	}

	return event, nil
}
