// internal/ledger/postgres.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/models"

	_ "github.com/lib/pq"
)

// Schema for the applications table. The unique index on
// (job_id, resume_fingerprint) is what makes Append idempotent.
const createTableSQL = `
CREATE TABLE IF NOT EXISTS applications (
	id BIGSERIAL PRIMARY KEY,
	job_id TEXT NOT NULL,
	resume_fingerprint TEXT NOT NULL,
	decision TEXT NOT NULL,
	match_percentage DOUBLE PRECISION NOT NULL,
	matched_skills TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (job_id, resume_fingerprint)
)`

// PostgresLedger persists application records in PostgreSQL.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Migrate creates the applications table if it does not exist.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	if _, err := l.db.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("failed to migrate applications table: %w", err)
	}
	return nil
}

// Append inserts the record with ON CONFLICT DO NOTHING so the insert
// and the duplicate check are a single atomic statement. On conflict the
// existing row is read back and returned.
func (l *PostgresLedger) Append(ctx context.Context, record models.ApplicationRecord) (AppendOutcome, error) {
	res, err := l.db.ExecContext(ctx,
		`INSERT INTO applications
			(job_id, resume_fingerprint, decision, match_percentage, matched_skills, reason, error, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (job_id, resume_fingerprint) DO NOTHING`,
		record.JobID,
		record.ResumeFingerprint,
		string(record.Decision),
		record.MatchPercentage,
		strings.Join(record.MatchedSkills, ","),
		string(record.Reason),
		record.Error,
		record.Timestamp.UTC(),
	)
	if err != nil {
		return AppendOutcome{}, fmt.Errorf("failed to append application record: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return AppendOutcome{}, fmt.Errorf("failed to read append result: %w", err)
	}
	if affected == 1 {
		return AppendOutcome{Written: true}, nil
	}

	existing, err := l.Find(ctx, record.JobID, record.ResumeFingerprint)
	if err != nil {
		return AppendOutcome{}, err
	}
	return AppendOutcome{Written: false, Existing: existing}, nil
}

func (l *PostgresLedger) Find(ctx context.Context, jobID, fingerprint string) (*models.ApplicationRecord, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT job_id, resume_fingerprint, decision, match_percentage, matched_skills, reason, error, created_at
		 FROM applications
		 WHERE job_id = $1 AND resume_fingerprint = $2`,
		jobID, fingerprint,
	)

	record, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up application record: %w", err)
	}
	return record, nil
}

func (l *PostgresLedger) Stats(ctx context.Context) (models.LedgerStats, error) {
	stats := models.LedgerStats{
		ByReason:  make(map[models.Reason]int),
		UpdatedAt: time.Now().UTC(),
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT decision, reason, COUNT(*) FROM applications GROUP BY decision, reason`)
	if err != nil {
		return stats, fmt.Errorf("failed to aggregate ledger stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var decision, reason string
		var count int
		if err := rows.Scan(&decision, &reason, &count); err != nil {
			return stats, fmt.Errorf("failed to scan ledger stats: %w", err)
		}
		stats.Total += count
		switch models.Decision(decision) {
		case models.DecisionApplied:
			stats.Applied += count
		case models.DecisionSkipped:
			stats.Skipped += count
		case models.DecisionFailed:
			stats.Failed += count
		}
		if reason != "" {
			stats.ByReason[models.Reason(reason)] += count
		}
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to read ledger stats: %w", err)
	}

	recent, err := l.db.QueryContext(ctx,
		`SELECT job_id, resume_fingerprint, decision, match_percentage, matched_skills, reason, error, created_at
		 FROM applications
		 ORDER BY created_at DESC
		 LIMIT $1`, recentLimit)
	if err != nil {
		return stats, fmt.Errorf("failed to load recent records: %w", err)
	}
	defer recent.Close()

	for recent.Next() {
		record, err := scanRecord(recent.Scan)
		if err != nil {
			return stats, fmt.Errorf("failed to scan recent record: %w", err)
		}
		stats.Recent = append(stats.Recent, *record)
	}
	if err := recent.Err(); err != nil {
		return stats, fmt.Errorf("failed to read recent records: %w", err)
	}
	return stats, nil
}

func scanRecord(scan func(dest ...interface{}) error) (*models.ApplicationRecord, error) {
	var record models.ApplicationRecord
	var decision, skills, reason string
	if err := scan(
		&record.JobID,
		&record.ResumeFingerprint,
		&decision,
		&record.MatchPercentage,
		&skills,
		&reason,
		&record.Error,
		&record.Timestamp,
	); err != nil {
		return nil, err
	}
	record.Decision = models.Decision(decision)
	record.Reason = models.Reason(reason)
	if skills != "" {
		record.MatchedSkills = strings.Split(skills, ",")
	}
	return &record, nil
}
