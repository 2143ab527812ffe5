// internal/models/job.go
package models

import "fmt"

// Platform identifies the job board a posting (and its credential) belongs
// to. It is a closed set: rate-limit buckets and credential state are keyed
// by platform, so free-form strings are rejected at the boundary.
type Platform string

const (
	PlatformLinkedIn     Platform = "linkedin"
	PlatformIndeed       Platform = "indeed"
	PlatformGlassdoor    Platform = "glassdoor"
	PlatformZipRecruiter Platform = "ziprecruiter"
)

// ParsePlatform validates a platform identifier from external input.
func ParsePlatform(s string) (Platform, error) {
	switch Platform(s) {
	case PlatformLinkedIn, PlatformIndeed, PlatformGlassdoor, PlatformZipRecruiter:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

func (p Platform) String() string { return string(p) }

// JobPosting is one job to evaluate, supplied by the caller or fetched
// from the job data provider. Immutable within a batch.
type JobPosting struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Company         string   `json:"company"`
	Description     string   `json:"description"`
	RequiredSkills  []string `json:"requiredSkills,omitempty"`
	Location        string   `json:"location,omitempty"`
	ExperienceLevel string   `json:"experienceLevel,omitempty"`
	Platform        Platform `json:"platform"`
	ApplicationURL  string   `json:"applicationUrl,omitempty"`
}
