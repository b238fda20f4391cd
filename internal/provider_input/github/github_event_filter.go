package github

import (
	"strings"

	"github.com/prreview/internal/apperrors"
)

// ShouldReview decides whether event triggers a review. Only pull_request
// events with action opened, reopened or synchronize do; everything else is
// ignored without error. A triggering event without repository.full_name or
// pull_request.number is a validation error.
func ShouldReview(event WebhookEvent) (ReviewTarget, bool, error) {
	if event.EventType != EventPullRequest || !triggerActions[event.Action] {
		return ReviewTarget{}, false, nil
	}

	if strings.TrimSpace(event.RepositoryFullName) == "" {
		return ReviewTarget{}, false, apperrors.Validation("missing repository.full_name")
	}
	if event.PRNumber <= 0 {
		return ReviewTarget{}, false, apperrors.Validation("missing pull_request.number")
	}

	return ReviewTarget{
		Repository: event.RepositoryFullName,
		PRNumber:   event.PRNumber,
	}, true, nil
}
