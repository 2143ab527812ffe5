// internal/models/resume.go
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// ResumeProfile is the parsed candidate data consumed by the engine.
// It is immutable for the duration of a batch run; optimized variants
// are separate derived artifacts and never replace the original.
type ResumeProfile struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Email      string            `json:"email"`
	Phone      string            `json:"phone,omitempty"`
	Location   string            `json:"location,omitempty"`
	Skills     []string          `json:"skills"`
	Keywords   []string          `json:"keywords,omitempty"`
	Experience []ExperienceEntry `json:"experience,omitempty"`
	Education  []EducationEntry  `json:"education,omitempty"`
	RawText    string            `json:"rawText,omitempty"`
}

type ExperienceEntry struct {
	Title     string `json:"title"`
	Company   string `json:"company"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Summary   string `json:"summary,omitempty"`
}

type EducationEntry struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree,omitempty"`
	Year        string `json:"year,omitempty"`
}

// Fingerprint derives a stable identifier from resume content, used as the
// idempotency key component for ledger records. Skills and keywords are
// sorted so field order in the request does not change the fingerprint.
func (r ResumeProfile) Fingerprint() string {
	skills := append([]string(nil), r.Skills...)
	keywords := append([]string(nil), r.Keywords...)
	sort.Strings(skills)
	sort.Strings(keywords)

	h := sha256.New()
	h.Write([]byte(strings.ToLower(r.Name)))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.Join(skills, ","))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(strings.Join(keywords, ","))))
	h.Write([]byte{0})
	h.Write([]byte(r.RawText))
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// KeywordSet returns the casefolded, deduplicated union of skills and
// extracted keywords used by the match scorer.
func (r ResumeProfile) KeywordSet() []string {
	seen := make(map[string]bool, len(r.Skills)+len(r.Keywords))
	out := make([]string, 0, len(r.Skills)+len(r.Keywords))
	for _, group := range [][]string{r.Skills, r.Keywords} {
		for _, k := range group {
			k = strings.ToLower(strings.TrimSpace(k))
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// OptimizedResume is a job-tailored variant produced by the optimizer
// adapter. It references the original via fingerprint and is only ever
// attached to a single job's submission.
type OptimizedResume struct {
	OriginalFingerprint string   `json:"originalFingerprint"`
	JobID               string   `json:"jobId"`
	Content             string   `json:"content"`
	CoverLetter         string   `json:"coverLetter,omitempty"`
	HighlightedSkills   []string `json:"highlightedSkills,omitempty"`
}
