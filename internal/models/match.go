// internal/models/match.go
package models

// Recommendation buckets a match percentage. The thresholds are part of
// the scoring contract: >70 strong, 40-70 moderate, <40 weak.
type Recommendation string

const (
	RecommendationStrong   Recommendation = "strong"
	RecommendationModerate Recommendation = "moderate"
	RecommendationWeak     Recommendation = "weak"
)

// MatchResult is the outcome of scoring one (resume, posting) pair.
// Computed fresh per job per batch; never cached across resume edits.
type MatchResult struct {
	Percentage     float64        `json:"percentage"`
	MatchedSkills  []string       `json:"matchedSkills"`
	MissingSkills  []string       `json:"missingSkills"`
	Recommendation Recommendation `json:"recommendation"`
}
