// internal/adapters/auth/auth.go
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// Config holds the browser-automation auth service settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPAuthenticator checks platform logins through the automation
// service. A non-2xx response is an error, not a verdict: the caller
// decides how ambiguity is treated.
type HTTPAuthenticator struct {
	config Config
	client *http.Client
}

func NewHTTPAuthenticator(config Config) *HTTPAuthenticator {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPAuthenticator{
		config: config,
		client: &http.Client{Timeout: timeout},
	}
}

type authRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Platform string `json:"platform"`
}

type authResponse struct {
	Valid  bool   `json:"valid"`
	Detail string `json:"detail,omitempty"`
}

func (a *HTTPAuthenticator) Authenticate(ctx context.Context, credential models.Credential) (bool, error) {
	payload, err := json.Marshal(authRequest{
		Email:    credential.Email,
		Password: credential.Password,
		Platform: credential.Platform.String(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to encode auth request: %w", err)
	}

	url := a.config.BaseURL + "/api/v1/auth/validate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("auth service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, fmt.Errorf("failed to decode auth response: %w", err)
	}
	return result.Valid, nil
}
