package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{Authentication("missing signature header"), http.StatusUnauthorized},
		{Validation("missing repository.full_name"), http.StatusBadRequest},
		{Upstream(errors.New("404"), "list files"), http.StatusBadGateway},
		{Submission(errors.New("500")), http.StatusBadGateway},
		{FileReview(errors.New("boom"), "a.py"), http.StatusInternalServerError},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.StatusCode)
		})
	}
}

func TestIsFollowsWrappedChain(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("perform review: %w", Upstream(base, "failed to list changed files"))

	assert.True(t, Is(err, ErrCodeUpstreamFailed))
	assert.False(t, Is(err, ErrCodeSubmissionFailed))
	assert.ErrorIs(t, err, base)

	appErr, ok := As(err)
	require.True(t, ok)
	assert.Equal(t, "failed to list changed files", appErr.Message)
	assert.Contains(t, appErr.Error(), "connection reset")
}

func TestErrorWithoutCause(t *testing.T) {
	err := Authentication("signature mismatch")
	assert.Equal(t, "UNAUTHORIZED: signature mismatch", err.Error())
	assert.Nil(t, err.Unwrap())
}
