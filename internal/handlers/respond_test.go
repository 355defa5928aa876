package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aidana2304/SchoolConnect/internal/apperrors"
	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func init() {
	logger.InitLogger()
}

func TestRespondErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", apperrors.Validation("message content cannot be empty"), http.StatusBadRequest},
		{"conflict", apperrors.Conflict("friend request already pending"), http.StatusConflict},
		{"not found", apperrors.NotFound("user"), http.StatusNotFound},
		{"store", apperrors.Store("insert message", errors.New("connection reset")), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestRespondErrorHidesStoreDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, apperrors.Store("insert message", errors.New("dial tcp: password=hunter2 refused")))

	assert.NotContains(t, rec.Body.String(), "hunter2", "driver detail must not leak to the client")
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")
}

func TestRespondErrorKeepsValidationDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, apperrors.Validation("cannot send a message to yourself"))

	assert.Contains(t, rec.Body.String(), "cannot send a message to yourself")
}
