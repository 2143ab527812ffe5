// internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/errors"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/validation"
	"github.com/MadhavBytes/AI-job-hunter/internal/credentials"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
	"github.com/MadhavBytes/AI-job-hunter/internal/scorer"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BatchRunner is the slice of the orchestration engine the API needs.
type BatchRunner interface {
	Run(ctx context.Context, request models.BatchRequest) (models.BatchRun, error)
}

// CredentialService covers the validate/reset sub-flow.
type CredentialService interface {
	Validate(ctx context.Context, credential models.Credential) (models.CredentialState, error)
	IssueReset(ctx context.Context, credential models.Credential) (models.CredentialState, error)
	ConfirmReset(ctx context.Context, credential models.Credential, token string) (models.CredentialState, error)
}

// StatsSource reports ledger aggregates.
type StatsSource interface {
	Stats(ctx context.Context) (models.LedgerStats, error)
}

// Server exposes the auto-apply engine over HTTP.
type Server struct {
	router      chi.Router
	engine      BatchRunner
	credentials CredentialService
	scorer      scorer.MatchScorer
	stats       StatsSource
	errors      *errors.ErrorHandler
	logger      logger.Logger
}

type Deps struct {
	Engine      BatchRunner
	Credentials CredentialService
	Scorer      scorer.MatchScorer
	Stats       StatsSource
	Logger      logger.Logger
}

func NewServer(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		engine:      deps.Engine,
		credentials: deps.Credentials,
		scorer:      deps.Scorer,
		stats:       deps.Stats,
		errors:      errors.NewErrorHandler(log),
		logger:      log.WithFields(map[string]interface{}{"component": "api"}),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/applications/auto-apply", s.handleAutoApply)
		r.Get("/applications/stats", s.handleStats)
		r.Post("/match", s.handleMatch)
		r.Post("/credentials/validate", s.handleValidateCredentials)
		r.Post("/credentials/reset", s.handleResetCredentials)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Info("request handled", map[string]interface{}{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		})
	})
}

// ==========================
// Handlers
// ==========================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAutoApply(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("unreadable request body"))
		return
	}

	result, err := validation.ValidateJSON(body, validation.AutoApplyRequestSchema)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("malformed JSON body"))
		return
	}
	if !result.Valid {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(
			strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	var request models.BatchRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(err.Error()))
		return
	}

	run, err := s.engine.Run(r.Context(), request)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, run.Response())
}

type matchRequest struct {
	ResumeData models.ResumeProfile `json:"resume_data"`
	JobPosting models.JobPosting    `json:"job_posting"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("unreadable request body"))
		return
	}

	result, err := validation.ValidateJSON(body, validation.MatchRequestSchema)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("malformed JSON body"))
		return
	}
	if !result.Valid {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(
			strings.Join(result.GetErrorMessages(), "; ")))
		return
	}

	var request matchRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(err.Error()))
		return
	}

	match := s.scorer.Score(request.ResumeData, request.JobPosting)
	writeJSON(w, http.StatusOK, match)
}

type credentialRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Platform   string `json:"platform"`
	ResetToken string `json:"reset_token,omitempty"`
}

// credentialResponse never echoes the password or the token itself; the
// token travels through the notification channel.
type credentialResponse struct {
	Status           models.CredentialStatus `json:"status"`
	Detail           string                  `json:"detail,omitempty"`
	ResetTokenIssued bool                    `json:"reset_token_issued,omitempty"`
	ExpiresAt        *time.Time              `json:"expires_at,omitempty"`
}

func (s *Server) decodeCredential(w http.ResponseWriter, r *http.Request) (*credentialRequest, models.Credential, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("unreadable request body"))
		return nil, models.Credential{}, false
	}

	result, err := validation.ValidateJSON(body, validation.CredentialRequestSchema)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError("malformed JSON body"))
		return nil, models.Credential{}, false
	}
	if !result.Valid {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(
			strings.Join(result.GetErrorMessages(), "; ")))
		return nil, models.Credential{}, false
	}

	var request credentialRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(err.Error()))
		return nil, models.Credential{}, false
	}

	platform, err := models.ParsePlatform(request.Platform)
	if err != nil {
		s.errors.WriteHTTPError(w, r, errors.NewValidationFailedError(err.Error()))
		return nil, models.Credential{}, false
	}

	return &request, models.Credential{
		Email:    request.Email,
		Password: request.Password,
		Platform: platform,
	}, true
}

func (s *Server) handleValidateCredentials(w http.ResponseWriter, r *http.Request) {
	_, credential, ok := s.decodeCredential(w, r)
	if !ok {
		return
	}

	state, err := s.credentials.Validate(r.Context(), credential)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credentialStateResponse(state))
}

// handleResetCredentials issues a reset token when none is supplied, or
// redeems one and re-validates the updated credential.
func (s *Server) handleResetCredentials(w http.ResponseWriter, r *http.Request) {
	request, credential, ok := s.decodeCredential(w, r)
	if !ok {
		return
	}

	if request.ResetToken == "" {
		state, err := s.credentials.IssueReset(r.Context(), credential)
		if err != nil {
			s.errors.WriteHTTPError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, credentialStateResponse(state))
		return
	}

	state, err := s.credentials.ConfirmReset(r.Context(), credential, request.ResetToken)
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	if state.Status == models.CredentialInvalid {
		// A rejected confirmation is an auth failure, not a 200.
		if state.Detail == credentials.DetailTokenRejected {
			s.errors.WriteHTTPError(w, r, errors.NewResetTokenExpiredError())
			return
		}
		s.errors.WriteHTTPError(w, r, errors.NewCredentialInvalidError(credential.Platform.String()))
		return
	}
	writeJSON(w, http.StatusOK, credentialStateResponse(state))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats.Stats(r.Context())
	if err != nil {
		s.errors.WriteHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func credentialStateResponse(state models.CredentialState) credentialResponse {
	resp := credentialResponse{
		Status: state.Status,
		Detail: state.Detail,
	}
	if state.Status == models.CredentialResetPending {
		resp.ResetTokenIssued = true
		expiry := state.TokenExpiry
		resp.ExpiresAt = &expiry
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
