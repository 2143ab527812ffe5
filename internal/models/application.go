// internal/models/application.go
package models

import "time"

// Decision is the terminal outcome recorded for one job.
type Decision string

const (
	DecisionApplied Decision = "applied"
	DecisionSkipped Decision = "skipped"
	DecisionFailed  Decision = "failed"
)

// Reason qualifies a skipped or failed decision.
type Reason string

const (
	ReasonWeakMatch            Reason = "weak_match"
	ReasonNeedsConfirmation    Reason = "needs_confirmation"
	ReasonFiltered             Reason = "filtered"
	ReasonCancelled            Reason = "cancelled"
	ReasonCredentialUnresolved Reason = "credential_unresolved"
	ReasonOptimizationFailed   Reason = "optimization_failed"
	ReasonSubmissionFailed     Reason = "submission_failed"
	ReasonRateLimited          Reason = "rate_limited"
	ReasonDuplicate            Reason = "duplicate_application"
	ReasonPostingUnavailable   Reason = "posting_unavailable"
)

// ApplicationRecord is one row of the append-only ledger. The
// (JobID, ResumeFingerprint) pair is the idempotency key.
type ApplicationRecord struct {
	JobID             string    `json:"jobId"`
	ResumeFingerprint string    `json:"resumeFingerprint"`
	Decision          Decision  `json:"decision"`
	MatchPercentage   float64   `json:"matchPercentage"`
	MatchedSkills     []string  `json:"matchedSkills,omitempty"`
	Reason            Reason    `json:"reason,omitempty"`
	Error             string    `json:"error,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// LedgerStats summarizes the ledger for reporting.
type LedgerStats struct {
	Total     int                 `json:"total"`
	Applied   int                 `json:"applied"`
	Skipped   int                 `json:"skipped"`
	Failed    int                 `json:"failed"`
	ByReason  map[Reason]int      `json:"byReason,omitempty"`
	Recent    []ApplicationRecord `json:"recent,omitempty"`
	UpdatedAt time.Time           `json:"updatedAt"`
}
