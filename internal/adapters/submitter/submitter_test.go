// internal/adapters/submitter/submitter_test.go
package submitter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createSubmission() (models.JobPosting, models.OptimizedResume, models.Credential) {
	posting := models.JobPosting{
		ID:             "job-1",
		Title:          "Platform Engineer",
		Company:        "Acme Corp",
		Platform:       models.PlatformIndeed,
		ApplicationURL: "https://indeed.example.com/apply/job-1",
	}
	resume := models.OptimizedResume{
		OriginalFingerprint: "fp-1",
		JobID:               "job-1",
		Content:             "tailored resume",
		CoverLetter:         "dear hiring manager",
	}
	credential := models.Credential{
		Email:    "user@example.com",
		Password: "hunter2",
		Platform: models.PlatformIndeed,
	}
	return posting, resume, credential
}

// ==========================
// Submit Tests
// ==========================

func TestHTTPSubmitter_Submit_Success(t *testing.T) {
	var received submitRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/applications", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(submitResponse{Success: true, ConfirmationID: "conf-42"})
	}))
	defer server.Close()

	s := NewHTTPSubmitter(Config{BaseURL: server.URL, APIKey: "secret"}, logger.NewTestLogger(t))
	posting, resume, credential := createSubmission()

	receipt, err := s.Submit(context.Background(), posting, resume, credential)
	require.NoError(t, err)
	assert.Equal(t, "conf-42", receipt.ConfirmationID)
	assert.False(t, receipt.SubmittedAt.IsZero())

	assert.Equal(t, "job-1", received.JobID)
	assert.Equal(t, "indeed", received.Platform)
	assert.Equal(t, "tailored resume", received.Resume)
	assert.Equal(t, "dear hiring manager", received.CoverLetter)
	assert.Equal(t, "user@example.com", received.Email)
}

func TestHTTPSubmitter_Submit_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(submitResponse{Success: false, Error: "captcha required"})
	}))
	defer server.Close()

	s := NewHTTPSubmitter(Config{BaseURL: server.URL}, logger.NewTestLogger(t))
	posting, resume, credential := createSubmission()

	_, err := s.Submit(context.Background(), posting, resume, credential)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "captcha required")
}

func TestHTTPSubmitter_Submit_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	s := NewHTTPSubmitter(Config{BaseURL: server.URL}, logger.NewTestLogger(t))
	posting, resume, credential := createSubmission()

	_, err := s.Submit(context.Background(), posting, resume, credential)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHTTPSubmitter_Submit_Unreachable(t *testing.T) {
	s := NewHTTPSubmitter(Config{BaseURL: "http://127.0.0.1:1"}, logger.NewTestLogger(t))
	posting, resume, credential := createSubmission()

	_, err := s.Submit(context.Background(), posting, resume, credential)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "automation service unreachable")
}
