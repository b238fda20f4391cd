package api

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/prreview/internal/apperrors"
	"github.com/prreview/internal/logging"
	"github.com/prreview/internal/provider_input/github"
	"github.com/prreview/internal/webhookutils"
)

// handleWebhook authenticates a GitHub delivery, filters it and, for a
// triggering pull request event, runs the review before responding.
func (s *Server) handleWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return respondError(c, apperrors.Validation("failed to read request body"))
	}

	headers := webhookutils.ReadDeliveryHeaders(c.Request().Header)
	reviewID := headers.Delivery
	if reviewID == "" {
		reviewID = uuid.NewString()
	}

	if err := s.verifier.Verify(body, headers.Signature, headers.HasSignature); err != nil {
		log.Warn().Err(err).Str("review_id", reviewID).Str("remote_ip", c.RealIP()).Msg("Rejected webhook delivery")
		return respondError(c, err)
	}

	s.capture.WriteBlob("webhook", "json", body)

	event, err := github.ParseEvent(headers.Event, body)
	if err != nil {
		// Only pull_request bodies are inspected. Other events, such as a
		// form-encoded ping, are acknowledged whatever their encoding.
		if headers.Event != github.EventPullRequest {
			return ignored(c, event)
		}
		return respondError(c, err)
	}

	target, ok, err := github.ShouldReview(event)
	if err != nil {
		log.Warn().Err(err).Str("review_id", reviewID).Str("event", event.EventType).Msg("Invalid triggering payload")
		return respondError(c, err)
	}
	if !ok {
		return ignored(c, event)
	}

	logger := logging.ForReview(reviewID, target.Repository, target.PRNumber)
	logger.Info().Str("action", event.Action).Msg("Review triggered")

	// a dropped client connection must not abort the review
	ctx := logger.WithContext(context.WithoutCancel(c.Request().Context()))
	result, err := s.reviews.PerformReview(ctx, target.Repository, target.PRNumber)
	if err != nil {
		logger.Error().Err(err).Msg("Review failed")
		return respondError(c, err)
	}

	if len(result.Outcomes) == 0 {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"message":   "No files to review",
			"review_id": reviewID,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":        fmt.Sprintf("Review posted for %s#%d", target.Repository, target.PRNumber),
		"review_id":      reviewID,
		"files_reviewed": len(result.Outcomes) - result.Failed(),
		"files_failed":   result.Failed(),
		"files_skipped":  result.Skipped,
	})
}

func ignored(c echo.Context, event github.WebhookEvent) error {
	log.Debug().Str("event", event.EventType).Str("action", event.Action).Msg("Ignoring webhook event")
	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Event %s with action %s ignored", event.EventType, event.Action),
	})
}

// respondError maps an AppError onto its HTTP status. Anything else is a 500.
// Upstream and submission failures are 502 rather than an acknowledgement:
// no review was posted, and the sender's delivery log should show it.
func respondError(c echo.Context, err error) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	return c.JSON(appErr.StatusCode, map[string]string{
		"code":    string(appErr.Code),
		"message": appErr.Message,
	})
}
