// internal/adapters/auth/auth_test.go
package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Authenticator Tests
// ==========================

func TestHTTPAuthenticator_Authenticate(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		expectOK  bool
		expectErr bool
	}{
		{
			name:     "valid credentials",
			status:   http.StatusOK,
			body:     `{"valid": true}`,
			expectOK: true,
		},
		{
			name:     "invalid credentials",
			status:   http.StatusOK,
			body:     `{"valid": false, "detail": "login rejected"}`,
			expectOK: false,
		},
		{
			name:      "service error is not a verdict",
			status:    http.StatusBadGateway,
			body:      `{}`,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/api/v1/auth/validate", r.URL.Path)

				var req authRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "user@example.com", req.Email)
				assert.Equal(t, "linkedin", req.Platform)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			authenticator := NewHTTPAuthenticator(Config{BaseURL: server.URL})
			ok, err := authenticator.Authenticate(context.Background(), models.Credential{
				Email:    "user@example.com",
				Password: "hunter2",
				Platform: models.PlatformLinkedIn,
			})

			if tt.expectErr {
				assert.Error(t, err)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectOK, ok)
		})
	}
}
