package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Aidana2304/SchoolConnect/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func init() {
	logger.InitLogger()
}

func TestPollLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewPollLimiter(60, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.Allow("user-1"), "request %d within burst should pass", i)
	}
	assert.False(t, limiter.Allow("user-1"), "request beyond burst should be denied")
}

func TestPollLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewPollLimiter(60, 1)

	assert.True(t, limiter.Allow("user-1"))
	assert.False(t, limiter.Allow("user-1"))
	assert.True(t, limiter.Allow("user-2"), "a different caller has their own bucket")
}

func TestPollLimiterMiddlewareReturns429(t *testing.T) {
	limiter := NewPollLimiter(60, 1)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/chat/unread/count", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
