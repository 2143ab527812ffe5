// internal/ledger/memory.go
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"
)

const recentLimit = 20

// MemoryLedger is a mutex-guarded in-memory Ledger. Used in tests and
// single-node deployments without Postgres.
type MemoryLedger struct {
	mu      sync.Mutex
	byKey   map[string]int
	records []models.ApplicationRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byKey: make(map[string]int)}
}

func key(jobID, fingerprint string) string {
	return jobID + "\x00" + fingerprint
}

func (l *MemoryLedger) Append(ctx context.Context, record models.ApplicationRecord) (AppendOutcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := key(record.JobID, record.ResumeFingerprint)
	if idx, ok := l.byKey[k]; ok {
		existing := l.records[idx]
		return AppendOutcome{Written: false, Existing: &existing}, nil
	}

	l.byKey[k] = len(l.records)
	l.records = append(l.records, record)
	return AppendOutcome{Written: true}, nil
}

func (l *MemoryLedger) Find(ctx context.Context, jobID, fingerprint string) (*models.ApplicationRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if idx, ok := l.byKey[key(jobID, fingerprint)]; ok {
		record := l.records[idx]
		return &record, nil
	}
	return nil, nil
}

func (l *MemoryLedger) Stats(ctx context.Context) (models.LedgerStats, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := models.LedgerStats{
		Total:     len(l.records),
		ByReason:  make(map[models.Reason]int),
		UpdatedAt: time.Now().UTC(),
	}
	for _, r := range l.records {
		switch r.Decision {
		case models.DecisionApplied:
			stats.Applied++
		case models.DecisionSkipped:
			stats.Skipped++
		case models.DecisionFailed:
			stats.Failed++
		}
		if r.Reason != "" {
			stats.ByReason[r.Reason]++
		}
	}

	start := len(l.records) - recentLimit
	if start < 0 {
		start = 0
	}
	recent := l.records[start:]
	stats.Recent = make([]models.ApplicationRecord, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		stats.Recent = append(stats.Recent, recent[i])
	}
	return stats, nil
}
