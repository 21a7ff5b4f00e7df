package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"

	"pcms/pkg/requestcontext"
)

func TestRequestContext(t *testing.T) {
	var (
		gotID  string
		gotNow time.Time
	)
	handler := middleware.RequestID(RequestContext(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotID = requestcontext.RequestID(r.Context())
		gotNow = requestcontext.Now(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-123")
	before := time.Now()
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "req-123", gotID)
	assert.False(t, gotNow.Before(before.UTC().Add(-time.Second)))
	assert.Equal(t, time.UTC, gotNow.Location())
}
