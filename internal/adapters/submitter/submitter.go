// internal/adapters/submitter/submitter.go
package submitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// Receipt is the submitter's confirmation of a completed submission.
type Receipt struct {
	ConfirmationID string    `json:"confirmationId"`
	SubmittedAt    time.Time `json:"submittedAt"`
}

// ApplicationSubmitter delivers one application to a platform. The
// default implementation calls the browser-automation service; the
// interface lets tests and future direct integrations swap it out.
type ApplicationSubmitter interface {
	Submit(ctx context.Context, posting models.JobPosting, resume models.OptimizedResume, credential models.Credential) (*Receipt, error)
}

// Config for the automation-service client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// HTTPSubmitter posts applications to the browser-automation service.
type HTTPSubmitter struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPSubmitter(cfg Config, log logger.Logger) *HTTPSubmitter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 90 * time.Second
	}
	return &HTTPSubmitter{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "submitter"}),
	}
}

type submitRequest struct {
	JobID          string `json:"job_id"`
	Platform       string `json:"platform"`
	ApplicationURL string `json:"application_url,omitempty"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	Resume         string `json:"resume"`
	CoverLetter    string `json:"cover_letter,omitempty"`
}

type submitResponse struct {
	Success        bool   `json:"success"`
	ConfirmationID string `json:"confirmation_id"`
	Error          string `json:"error,omitempty"`
}

func (s *HTTPSubmitter) Submit(ctx context.Context, posting models.JobPosting, resume models.OptimizedResume, credential models.Credential) (*Receipt, error) {
	body, err := json.Marshal(submitRequest{
		JobID:          posting.ID,
		Platform:       posting.Platform.String(),
		ApplicationURL: posting.ApplicationURL,
		Email:          credential.Email,
		Password:       credential.Password,
		Resume:         resume.Content,
		CoverLetter:    resume.CoverLetter,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/api/v1/applications", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("automation service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("automation service returned status %d", resp.StatusCode)
	}

	var out submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode submission response: %w", err)
	}
	if !out.Success {
		if out.Error == "" {
			out.Error = "submission rejected"
		}
		return nil, fmt.Errorf("submission rejected: %s", out.Error)
	}

	s.logger.Info("application submitted", map[string]interface{}{
		"jobId":          posting.ID,
		"platform":       posting.Platform.String(),
		"confirmationId": out.ConfirmationID,
	})

	return &Receipt{
		ConfirmationID: out.ConfirmationID,
		SubmittedAt:    time.Now().UTC(),
	}, nil
}
