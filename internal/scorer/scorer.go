// internal/scorer/scorer.go
package scorer

import (
	"math"
	"strings"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// Recommendation thresholds. A percentage strictly above Strong is a
// strong match; Weak and below Strong (inclusive) is moderate; below
// Weak is weak.
const (
	StrongThreshold = 70.0
	WeakThreshold   = 40.0
)

// MatchScorer scores a resume against a single posting. Implementations
// must be deterministic and free of I/O so the orchestrator can call
// them from worker goroutines without coordination.
type MatchScorer interface {
	Score(resume models.ResumeProfile, posting models.JobPosting) models.MatchResult
}

// KeywordScorer is the default scorer: case-insensitive substring
// matching of the resume's keyword set against the posting text.
type KeywordScorer struct{}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{}
}

// Score computes round(100 * |matched| / |K|) where K is the resume's
// deduplicated keyword set and matched are the keywords appearing in the
// posting's title, company or description. An empty keyword set scores 0.
func (s *KeywordScorer) Score(resume models.ResumeProfile, posting models.JobPosting) models.MatchResult {
	keywords := resume.KeywordSet()
	text := strings.ToLower(posting.Title + " " + posting.Company + " " + posting.Description)

	matched := make([]string, 0, len(keywords))
	matchedSet := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		if strings.Contains(text, k) {
			matched = append(matched, k)
			matchedSet[k] = true
		}
	}

	var pct float64
	if len(keywords) > 0 {
		pct = math.Round(100 * float64(len(matched)) / float64(len(keywords)))
	}

	missing := make([]string, 0, len(posting.RequiredSkills))
	for _, req := range posting.RequiredSkills {
		if !matchedSet[strings.ToLower(strings.TrimSpace(req))] {
			missing = append(missing, req)
		}
	}

	return models.MatchResult{
		Percentage:     pct,
		MatchedSkills:  matched,
		MissingSkills:  missing,
		Recommendation: Recommend(pct),
	}
}

// Recommend buckets a percentage into the recommendation bands.
func Recommend(pct float64) models.Recommendation {
	switch {
	case pct > StrongThreshold:
		return models.RecommendationStrong
	case pct >= WeakThreshold:
		return models.RecommendationModerate
	default:
		return models.RecommendationWeak
	}
}
