// internal/ledger/ledger.go
package ledger

import (
	"context"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

// AppendOutcome reports whether Append wrote a new record or found an
// existing one for the same (job, resume fingerprint) key. Duplicate is
// a value, not an error: callers adopt the existing decision.
type AppendOutcome struct {
	Written  bool
	Existing *models.ApplicationRecord
}

// Ledger is the append-only application history. Records are never
// updated or deleted; duplicate detection is atomic with the write.
type Ledger interface {
	// Append writes record unless a record with the same JobID and
	// ResumeFingerprint already exists, in which case it returns the
	// existing record and Written=false.
	Append(ctx context.Context, record models.ApplicationRecord) (AppendOutcome, error)

	// Find returns the record for (jobID, fingerprint), or nil when none
	// exists.
	Find(ctx context.Context, jobID, fingerprint string) (*models.ApplicationRecord, error)

	// Stats aggregates decision counts and the most recent records.
	Stats(ctx context.Context) (models.LedgerStats, error)
}
