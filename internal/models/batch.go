// internal/models/batch.go
package models

import "time"

// BatchFilters narrow which postings are eligible before scoring and
// control the moderate-match escalation behavior.
type BatchFilters struct {
	Location             string `json:"location,omitempty"`
	ExperienceLevel      string `json:"experience_level,omitempty"`
	AllowModerateMatches bool   `json:"allow_moderate_matches,omitempty"`
}

// BatchRequest is the wire shape of the auto-apply operation. Inline
// JobPostings, when present, take precedence over the remote provider.
type BatchRequest struct {
	JobIDs      []string      `json:"job_ids"`
	ResumeData  ResumeProfile `json:"resume_data"`
	Credentials Credential    `json:"user_credentials"`
	Filters     BatchFilters  `json:"filters,omitempty"`
	JobPostings []JobPosting  `json:"job_postings,omitempty"`
}

// JobResult is the per-job entry of a batch response, reported in the
// caller's original job-id order.
type JobResult struct {
	JobID           string    `json:"job_id"`
	Applied         bool      `json:"applied"`
	MatchPercentage float64   `json:"match_percentage"`
	Timestamp       time.Time `json:"timestamp"`
	MatchedKeywords []string  `json:"matched_keywords,omitempty"`
	Reason          Reason    `json:"reason,omitempty"`
}

// BatchResponse summarizes a completed (or halted) batch run.
// Success is false only when the run could not start.
type BatchResponse struct {
	Success               bool        `json:"success"`
	TotalJobs             int         `json:"total_jobs"`
	ApplicationsSubmitted int         `json:"applications_submitted"`
	ApplicationsSkipped   int         `json:"applications_skipped"`
	Results               []JobResult `json:"results"`
}

// BatchRun is the engine's internal accounting for one run.
type BatchRun struct {
	RunID      string      `json:"runId"`
	TotalJobs  int         `json:"totalJobs"`
	Submitted  int         `json:"submitted"`
	Skipped    int         `json:"skipped"`
	Failed     int         `json:"failed"`
	Results    []JobResult `json:"results"`
	StartedAt  time.Time   `json:"startedAt"`
	FinishedAt time.Time   `json:"finishedAt"`
	Halted     bool        `json:"halted,omitempty"`
	HaltReason Reason      `json:"haltReason,omitempty"`
}

// Response converts the run to its wire shape. Failed jobs count toward
// neither submitted nor skipped in the summary line but always appear in
// Results.
func (r BatchRun) Response() BatchResponse {
	return BatchResponse{
		Success:               !r.Halted,
		TotalJobs:             r.TotalJobs,
		ApplicationsSubmitted: r.Submitted,
		ApplicationsSkipped:   r.Skipped,
		Results:               r.Results,
	}
}
