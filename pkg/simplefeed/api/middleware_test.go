package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-feed/pkg/simplefeed"
	"github.com/tendant/simple-feed/pkg/simplefeed/api"
	"github.com/tendant/simple-feed/pkg/simplefeed/auth"
)

func identityProbe(t *testing.T) (http.Handler, *simplefeed.Identity) {
	t.Helper()
	captured := &simplefeed.Identity{}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = simplefeed.IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}), captured
}

func TestIdentityMiddleware(t *testing.T) {
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	userID := uuid.New()

	validToken, err := tokens.Issue(userID, "tester@example.com")
	require.NoError(t, err)

	expiredIssuer := auth.NewTokenService([]byte("test-secret"), -time.Minute)
	expiredToken, err := expiredIssuer.Issue(userID, "tester@example.com")
	require.NoError(t, err)

	tests := []struct {
		name          string
		header        string
		authenticated bool
	}{
		{"no header", "", false},
		{"malformed header", "Token abc", false},
		{"garbage token", "Bearer garbage", false},
		{"expired token", "Bearer " + expiredToken, false},
		{"valid token", "Bearer " + validToken, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			probe, captured := identityProbe(t)
			handler := api.IdentityMiddleware(tokens)(probe)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			// The middleware never rejects, it only annotates.
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.authenticated, captured.Authenticated)
			if tt.authenticated {
				assert.Equal(t, userID, captured.UserID)
			}
		})
	}
}
