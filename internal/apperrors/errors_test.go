package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		name      string
		err       *ProviderError
		retryable bool
	}{
		{"rate limited", &ProviderError{Provider: "elevenlabs", StatusCode: 429}, true},
		{"server error", &ProviderError{Provider: "heygen", StatusCode: 503}, true},
		{"bad request", &ProviderError{Provider: "gemini", StatusCode: 400}, false},
		{"no status no cause", &ProviderError{Provider: "gemini"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, tt.err.Retryable())
			assert.Equal(t, tt.retryable, Retryable(fmt.Errorf("wrapped: %w", tt.err)))
			assert.True(t, errors.Is(tt.err, ErrProvider))
		})
	}
}

func TestRetryableTaxonomy(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.False(t, Retryable(Validation("text too long")))
	assert.False(t, Retryable(NotFound("voice", "abc")))
	assert.False(t, Retryable(fmt.Errorf("poll: %w", ErrTimeout)))
	assert.True(t, Retryable(fmt.Errorf("db: %w", ErrTransient)))
	assert.False(t, Retryable(errors.New("boom")))
}

func TestStorageErrorUnwrap(t *testing.T) {
	cause := errors.New("bucket missing")
	err := Storage("upload", "speeches/u/a.mp3", cause)

	assert.True(t, errors.Is(err, ErrStorage))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "speeches/u/a.mp3")
	assert.Nil(t, Storage("delete", "x", nil))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusOK, HTTPStatus(nil))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Validation("x")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("video", "1")))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(ErrUnauthorized))
	assert.Equal(t, http.StatusForbidden, HTTPStatus(ErrForbidden))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&ProviderError{Provider: "heygen", StatusCode: 400}))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrTransient))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}
