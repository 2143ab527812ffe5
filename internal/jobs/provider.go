// internal/jobs/provider.go
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// Provider resolves job ids to postings. Batch requests may carry the
// postings inline (StaticProvider) or reference a remote job data API.
type Provider interface {
	// Get returns the posting for jobID, or an error when unavailable.
	Get(ctx context.Context, jobID string) (*models.JobPosting, error)
}

// StaticProvider serves postings supplied inline with a batch request.
type StaticProvider struct {
	postings map[string]models.JobPosting
}

func NewStaticProvider(postings []models.JobPosting) *StaticProvider {
	byID := make(map[string]models.JobPosting, len(postings))
	for _, p := range postings {
		byID[p.ID] = p
	}
	return &StaticProvider{postings: byID}
}

func (p *StaticProvider) Get(ctx context.Context, jobID string) (*models.JobPosting, error) {
	posting, ok := p.postings[jobID]
	if !ok {
		return nil, fmt.Errorf("posting %s not found", jobID)
	}
	return &posting, nil
}

// Config for the remote job data API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// HTTPProvider fetches postings by id from a jobdata-style API.
type HTTPProvider struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewHTTPProvider(cfg Config, log logger.Logger) *HTTPProvider {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &HTTPProvider{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "jobs"}),
	}
}

// jobPayload matches the job data API's posting shape.
type jobPayload struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"required_skills"`
	Location        string   `json:"location"`
	ExperienceLevel string   `json:"experience_level"`
	Platform        string   `json:"platform"`
	ApplicationURL  string   `json:"application_url"`
}

func (p *HTTPProvider) Get(ctx context.Context, jobID string) (*models.JobPosting, error) {
	url := fmt.Sprintf("%s/jobs/%s/", p.config.BaseURL, jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("job data API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("posting %s not found", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("job data API returned status %d", resp.StatusCode)
	}

	var payload jobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode posting: %w", err)
	}

	platform, err := models.ParsePlatform(payload.Platform)
	if err != nil {
		return nil, fmt.Errorf("posting %s: %w", jobID, err)
	}

	return &models.JobPosting{
		ID:              payload.ID,
		Title:           payload.Title,
		Company:         payload.Company,
		Description:     payload.Description,
		RequiredSkills:  payload.RequiredSkills,
		Location:        payload.Location,
		ExperienceLevel: payload.ExperienceLevel,
		Platform:        platform,
		ApplicationURL:  payload.ApplicationURL,
	}, nil
}
