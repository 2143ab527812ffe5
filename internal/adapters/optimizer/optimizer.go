// internal/adapters/optimizer/optimizer.go
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// ResumeOptimizer tailors a resume (and cover letter) for one posting.
// The orchestrator treats it as a black box: input resume plus posting,
// output an optimized variant bound to that job.
type ResumeOptimizer interface {
	Optimize(ctx context.Context, resume models.ResumeProfile, posting models.JobPosting, match models.MatchResult) (*models.OptimizedResume, error)
}

// Config for the generation-API client.
type Config struct {
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// OllamaOptimizer calls an Ollama-compatible /api/generate endpoint to
// rewrite the resume and produce a cover letter.
type OllamaOptimizer struct {
	config     Config
	httpClient *http.Client
	logger     logger.Logger
}

func NewOllamaOptimizer(cfg Config, log logger.Logger) *OllamaOptimizer {
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.4
	}
	return &OllamaOptimizer{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "optimizer"}),
	}
}

type generateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func (o *OllamaOptimizer) Optimize(ctx context.Context, resume models.ResumeProfile, posting models.JobPosting, match models.MatchResult) (*models.OptimizedResume, error) {
	content, err := o.generate(ctx, adaptationPrompt(resume, posting))
	if err != nil {
		return nil, fmt.Errorf("resume adaptation failed: %w", err)
	}

	coverLetter, err := o.generate(ctx, coverLetterPrompt(resume, posting))
	if err != nil {
		return nil, fmt.Errorf("cover letter generation failed: %w", err)
	}

	o.logger.Debug("resume optimized", map[string]interface{}{
		"jobId":           posting.ID,
		"matchPercentage": match.Percentage,
	})

	return &models.OptimizedResume{
		OriginalFingerprint: resume.Fingerprint(),
		JobID:               posting.ID,
		Content:             content,
		CoverLetter:         coverLetter,
		HighlightedSkills:   match.MatchedSkills,
	}, nil
}

// Ping checks the generation API is reachable.
func (o *OllamaOptimizer) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("generation API unavailable: status %d", resp.StatusCode)
	}
	return nil
}

func (o *OllamaOptimizer) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:       o.config.Model,
		Prompt:      prompt,
		Stream:      false,
		Temperature: o.config.Temperature,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("generation API returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	return strings.TrimSpace(out.Response), nil
}

func adaptationPrompt(resume models.ResumeProfile, posting models.JobPosting) string {
	return fmt.Sprintf(`Adapt the following resume to emphasize experience relevant to this job. Keep it truthful; reorder and reword only.

Original Resume:
%s

Job Title: %s
Company: %s
Required Skills: %s

Job Description:
%s

Adapted Resume:`,
		resume.RawText,
		posting.Title,
		posting.Company,
		strings.Join(posting.RequiredSkills, ", "),
		posting.Description,
	)
}

func coverLetterPrompt(resume models.ResumeProfile, posting models.JobPosting) string {
	return fmt.Sprintf(`Write a short, professional cover letter for the following application.

Candidate: %s
Skills: %s

Job Title: %s
Company: %s

Job Description:
%s

Cover Letter:`,
		resume.Name,
		strings.Join(resume.Skills, ", "),
		posting.Title,
		posting.Company,
		posting.Description,
	)
}
