// internal/orchestrator/engine_test.go
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/submitter"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/jobs"
	"github.com/MadhavBytes/AI-job-hunter/internal/ledger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
	"github.com/MadhavBytes/AI-job-hunter/internal/notify"
	"github.com/MadhavBytes/AI-job-hunter/internal/ratelimit"
	"github.com/MadhavBytes/AI-job-hunter/internal/scorer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type stubValidator struct {
	state models.CredentialState
	err   error
}

func (v *stubValidator) Validate(ctx context.Context, credential models.Credential) (models.CredentialState, error) {
	return v.state, v.err
}

type stubOptimizer struct {
	mu    sync.Mutex
	calls int
	err   error
	delay time.Duration
}

func (o *stubOptimizer) Optimize(ctx context.Context, resume models.ResumeProfile, posting models.JobPosting, match models.MatchResult) (*models.OptimizedResume, error) {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()
	if o.delay > 0 {
		time.Sleep(o.delay)
	}
	if o.err != nil {
		return nil, o.err
	}
	return &models.OptimizedResume{
		OriginalFingerprint: resume.Fingerprint(),
		JobID:               posting.ID,
		Content:             "optimized",
	}, nil
}

func (o *stubOptimizer) callCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

type stubSubmitter struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, posting models.JobPosting, resume models.OptimizedResume, credential models.Credential) (*submitter.Receipt, error) {
	s.mu.Lock()
	s.calls = append(s.calls, posting.ID)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &submitter.Receipt{ConfirmationID: "conf-" + posting.ID, SubmittedAt: time.Now().UTC()}, nil
}

func (s *stubSubmitter) submissions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type stubLimiter struct {
	mu      sync.Mutex
	denials int
	waits   []string
}

func (l *stubLimiter) Acquire(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.waits = append(l.waits, key)
	if l.denials > 0 {
		l.denials--
		return false, 10 * time.Millisecond
	}
	return true, 0
}

type capturingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
}

func (d *capturingDispatcher) Dispatch(ctx context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *capturingDispatcher) byType(eventType string) []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []notify.Event
	for _, e := range d.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

type testHarness struct {
	engine     *Engine
	validator  *stubValidator
	optimizer  *stubOptimizer
	submitter  *stubSubmitter
	limiter    *stubLimiter
	ledger     *ledger.MemoryLedger
	dispatcher *capturingDispatcher
}

func newHarness(t *testing.T, cfg Config, postings []models.JobPosting) *testHarness {
	h := &testHarness{
		validator:  &stubValidator{state: models.CredentialState{Status: models.CredentialValid}},
		optimizer:  &stubOptimizer{},
		submitter:  &stubSubmitter{},
		limiter:    &stubLimiter{},
		ledger:     ledger.NewMemoryLedger(),
		dispatcher: &capturingDispatcher{},
	}
	h.engine = NewEngine(cfg, Deps{
		Scorer:     scorer.NewKeywordScorer(),
		Validator:  h.validator,
		Optimizer:  h.optimizer,
		Submitter:  h.submitter,
		Limiter:    h.limiter,
		Ledger:     h.ledger,
		Dispatcher: h.dispatcher,
		Provider:   jobs.NewStaticProvider(postings),
		Logger:     logger.NewTestLogger(t),
	})
	// Keep deferral sleeps out of test wall time.
	h.engine.sleep = func(ctx context.Context, d time.Duration) {}
	return h
}

// threePostings gives a strong (~85%), moderate (~50-60%) and weak
// (~20%) match for the test resume below.
func threePostings() []models.JobPosting {
	return []models.JobPosting{
		{
			ID:          "job-strong",
			Title:       "Senior Go Engineer",
			Company:     "Acme",
			Description: "go kubernetes aws postgres redis docker",
			Platform:    models.PlatformLinkedIn,
		},
		{
			ID:          "job-moderate",
			Title:       "Backend Engineer",
			Company:     "Globex",
			Description: "go postgres java spring",
			Platform:    models.PlatformLinkedIn,
		},
		{
			ID:          "job-weak",
			Title:       "iOS Developer",
			Company:     "Initech",
			Description: "swift objective-c xcode go",
			Platform:    models.PlatformLinkedIn,
		},
	}
}

func testRequest(jobIDs []string) models.BatchRequest {
	return models.BatchRequest{
		JobIDs: jobIDs,
		ResumeData: models.ResumeProfile{
			ID:     "resume-1",
			Name:   "Test Candidate",
			Email:  "candidate@example.com",
			Skills: []string{"go", "kubernetes", "aws", "postgres", "redis"},
		},
		Credentials: models.Credential{
			Email:    "user@example.com",
			Password: "hunter2",
			Platform: models.PlatformLinkedIn,
		},
	}
}

// ==========================
// Core Batch Tests
// ==========================

func TestEngine_Run_MixedDecisions(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	request := testRequest([]string{"job-strong", "job-moderate", "job-weak"})

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	assert.False(t, run.Halted)
	assert.Equal(t, 3, run.TotalJobs)
	assert.Equal(t, 1, run.Submitted)
	assert.Equal(t, 2, run.Skipped)
	assert.Equal(t, 0, run.Failed)

	require.Len(t, run.Results, 3)
	// Results hold the caller's original order.
	assert.Equal(t, "job-strong", run.Results[0].JobID)
	assert.Equal(t, "job-moderate", run.Results[1].JobID)
	assert.Equal(t, "job-weak", run.Results[2].JobID)

	assert.True(t, run.Results[0].Applied)
	assert.Greater(t, run.Results[0].MatchPercentage, 70.0)

	assert.False(t, run.Results[1].Applied)
	assert.Equal(t, models.ReasonNeedsConfirmation, run.Results[1].Reason)

	assert.False(t, run.Results[2].Applied)
	assert.Equal(t, models.ReasonWeakMatch, run.Results[2].Reason)

	// Only the strong match reached the submitter.
	assert.Equal(t, []string{"job-strong"}, h.submitter.submissions())
}

func TestEngine_Run_ModerateOptIn(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	request := testRequest([]string{"job-moderate"})
	request.Filters.AllowModerateMatches = true

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, 1, run.Submitted)
	assert.True(t, run.Results[0].Applied)
}

func TestEngine_Run_ResultCompleteness(t *testing.T) {
	postings := threePostings()
	h := newHarness(t, Config{WorkerCount: 2}, postings)
	// job-missing has no posting and must still produce a result.
	request := testRequest([]string{"job-strong", "job-missing", "job-weak"})

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	require.Len(t, run.Results, 3)
	seen := map[string]bool{}
	for _, r := range run.Results {
		seen[r.JobID] = true
	}
	assert.Len(t, seen, 3, "every job id appears exactly once")
	assert.Equal(t, models.ReasonPostingUnavailable, run.Results[1].Reason)
	assert.Equal(t, 1, run.Failed)
}

func TestEngine_Run_InlinePostingsBypassProvider(t *testing.T) {
	// Provider knows nothing; postings arrive inline.
	h := newHarness(t, DefaultConfig(), nil)
	request := testRequest([]string{"job-strong"})
	request.JobPostings = threePostings()

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)
	assert.Equal(t, 1, run.Submitted)
}

// ==========================
// Credential Barrier Tests
// ==========================

func TestEngine_Run_CredentialHalt(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.validator.state = models.CredentialState{Status: models.CredentialResetPending}
	request := testRequest([]string{"job-strong", "job-moderate"})

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	assert.True(t, run.Halted)
	assert.Equal(t, models.ReasonCredentialUnresolved, run.HaltReason)
	assert.Equal(t, 0, run.Submitted)
	require.Len(t, run.Results, 2)
	for _, r := range run.Results {
		assert.False(t, r.Applied)
		assert.Equal(t, models.ReasonCredentialUnresolved, r.Reason)
	}

	// Nothing reached the pipeline and nothing was recorded.
	assert.Empty(t, h.submitter.submissions())
	assert.Equal(t, 0, h.optimizer.callCount())
	stats, err := h.ledger.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)

	resp := run.Response()
	assert.False(t, resp.Success)
}

func TestEngine_Run_ResolvedCredentialProceeds(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.validator.state = models.CredentialState{Status: models.CredentialResolved}

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)
	assert.False(t, run.Halted)
	assert.Equal(t, 1, run.Submitted)
}

// ==========================
// Idempotency Tests
// ==========================

func TestEngine_Run_RerunProducesNoNewSubmissions(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	request := testRequest([]string{"job-strong", "job-moderate", "job-weak"})

	first, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)
	require.Equal(t, 1, first.Submitted)
	require.Len(t, h.submitter.submissions(), 1)

	second, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	// Same resume, same jobs: decisions are adopted from the ledger and
	// the submitter is not called again.
	assert.Len(t, h.submitter.submissions(), 1)
	assert.Equal(t, 1, second.Submitted)
	assert.Equal(t, 2, second.Skipped)

	stats, err := h.ledger.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
}

func TestEngine_Run_RepeatedJobIDSubmitsOnce(t *testing.T) {
	// Both occurrences would pass the ledger lookup before either write
	// lands if they were dispatched concurrently, so repeats must never
	// reach the pipeline at all.
	h := newHarness(t, Config{WorkerCount: 2}, threePostings())
	h.optimizer.delay = 100 * time.Millisecond

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong", "job-strong"}))
	require.NoError(t, err)

	assert.Equal(t, []string{"job-strong"}, h.submitter.submissions())
	assert.Equal(t, 1, h.optimizer.callCount())
	assert.Equal(t, 1, run.Submitted)
	assert.Equal(t, 1, run.Skipped)

	require.Len(t, run.Results, 2)
	assert.True(t, run.Results[0].Applied)
	assert.False(t, run.Results[1].Applied)
	assert.Equal(t, models.ReasonDuplicate, run.Results[1].Reason)

	// One ledger record and one submission notification for the pair.
	stats, err := h.ledger.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
	assert.Len(t, h.dispatcher.byType(notify.TypeApplicationSubmitted), 1)
}

func TestEngine_Run_ChangedResumeIsNewApplication(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	request := testRequest([]string{"job-strong"})

	_, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	request.ResumeData.Skills = append(request.ResumeData.Skills, "terraform")
	_, err = h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	// A different fingerprint is a different application.
	assert.Len(t, h.submitter.submissions(), 2)
}

// ==========================
// Failure Isolation Tests
// ==========================

func TestEngine_Run_OptimizerFailureIsolated(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.optimizer.err = errors.New("model unavailable")
	request := testRequest([]string{"job-strong", "job-weak"})

	run, err := h.engine.Run(context.Background(), request)
	require.NoError(t, err)

	assert.Equal(t, 0, run.Submitted)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 1, run.Skipped)
	assert.Equal(t, models.ReasonOptimizationFailed, run.Results[0].Reason)
	// The weak job's outcome is unaffected by the strong job's failure.
	assert.Equal(t, models.ReasonWeakMatch, run.Results[1].Reason)
	assert.Empty(t, h.submitter.submissions())
}

func TestEngine_Run_SubmissionFailure(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.submitter.err = errors.New("form changed")

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, models.ReasonSubmissionFailed, run.Results[0].Reason)

	// The failure is recorded so a re-run does not retry it.
	record, err := h.ledger.Find(context.Background(), "job-strong", testRequest(nil).ResumeData.Fingerprint())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, models.DecisionFailed, record.Decision)
}

// ==========================
// Rate Limiting Tests
// ==========================

func TestEngine_Run_RateLimitDeferralThenSuccess(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.limiter.denials = 2 // denied twice, granted on the third attempt

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Submitted)
	assert.Len(t, h.submitter.submissions(), 1)
}

func TestEngine_Run_RateLimitExhaustion(t *testing.T) {
	h := newHarness(t, Config{MaxSubmitAttempts: 3}, threePostings())
	h.limiter.denials = 10

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)

	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, models.ReasonRateLimited, run.Results[0].Reason)
	assert.Empty(t, h.submitter.submissions())
}

// ==========================
// Filter Tests
// ==========================

func TestEngine_Run_Filters(t *testing.T) {
	postings := threePostings()
	postings[0].Location = "Berlin, Germany"
	postings[0].ExperienceLevel = "senior"

	tests := []struct {
		name     string
		filters  models.BatchFilters
		expected models.Reason
		applied  bool
	}{
		{
			name:    "matching filters proceed",
			filters: models.BatchFilters{Location: "berlin", ExperienceLevel: "Senior"},
			applied: true,
		},
		{
			name:     "location mismatch filters out",
			filters:  models.BatchFilters{Location: "london"},
			expected: models.ReasonFiltered,
		},
		{
			name:     "experience mismatch filters out",
			filters:  models.BatchFilters{ExperienceLevel: "junior"},
			expected: models.ReasonFiltered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, DefaultConfig(), postings)
			request := testRequest([]string{"job-strong"})
			request.Filters = tt.filters

			run, err := h.engine.Run(context.Background(), request)
			require.NoError(t, err)
			assert.Equal(t, tt.applied, run.Results[0].Applied)
			if !tt.applied {
				assert.Equal(t, tt.expected, run.Results[0].Reason)
			}
		})
	}
}

// ==========================
// Cancellation Tests
// ==========================

func TestEngine_Run_Cancellation(t *testing.T) {
	postings := make([]models.JobPosting, 0, 6)
	ids := make([]string, 0, 6)
	for _, p := range []string{"a", "b", "c", "d", "e", "f"} {
		postings = append(postings, models.JobPosting{
			ID:          "job-" + p,
			Title:       "Go Engineer",
			Description: "go kubernetes aws postgres redis",
			Platform:    models.PlatformLinkedIn,
		})
		ids = append(ids, "job-"+p)
	}

	h := newHarness(t, Config{WorkerCount: 1}, postings)
	h.optimizer.delay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(25 * time.Millisecond)
		cancel()
	}()

	run, err := h.engine.Run(ctx, testRequest(ids))
	require.NoError(t, err)

	// Every job still has a result; undispatched ones are cancelled.
	require.Len(t, run.Results, 6)
	cancelled := 0
	finished := 0
	for _, r := range run.Results {
		if r.Reason == models.ReasonCancelled {
			cancelled++
			// Cancelled jobs never reach the ledger.
			record, ferr := h.ledger.Find(context.Background(), r.JobID, testRequest(nil).ResumeData.Fingerprint())
			require.NoError(t, ferr)
			assert.Nil(t, record)
		} else {
			finished++
		}
	}
	assert.Greater(t, cancelled, 0, "some jobs should be cancelled")
	assert.Greater(t, finished, 0, "in-flight work finishes naturally")
}

// ==========================
// Notification Tests
// ==========================

func TestEngine_Run_NotificationsPerTerminalDecision(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())

	_, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong", "job-weak"}))
	require.NoError(t, err)

	assert.Len(t, h.dispatcher.byType(notify.TypeApplicationSubmitted), 1)
	assert.Len(t, h.dispatcher.byType(notify.TypeApplicationSkipped), 1)
	assert.Len(t, h.dispatcher.byType(notify.TypeBatchCompleted), 1)
}

func TestEngine_Run_NotificationFailureDoesNotPropagate(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	failing := &failingDispatcher{}
	h.engine.dispatcher = notify.NewBestEffort(failing, logger.NewTestLogger(t))

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)
	assert.Equal(t, 1, run.Submitted)
	assert.True(t, run.Results[0].Applied)
	assert.Greater(t, failing.calls, 0)
}

// adoptingLedger simulates losing the append race: Find sees nothing,
// but Append reports an existing record written by another worker.
type adoptingLedger struct {
	existing models.ApplicationRecord
}

func (l *adoptingLedger) Append(ctx context.Context, record models.ApplicationRecord) (ledger.AppendOutcome, error) {
	return ledger.AppendOutcome{Written: false, Existing: &l.existing}, nil
}

func (l *adoptingLedger) Find(ctx context.Context, jobID, fingerprint string) (*models.ApplicationRecord, error) {
	return nil, nil
}

func (l *adoptingLedger) Stats(ctx context.Context) (models.LedgerStats, error) {
	return models.LedgerStats{}, nil
}

func TestEngine_Run_AdoptedAppendDoesNotNotify(t *testing.T) {
	h := newHarness(t, DefaultConfig(), threePostings())
	h.engine.ledger = &adoptingLedger{
		existing: models.ApplicationRecord{
			JobID:             "job-strong",
			ResumeFingerprint: testRequest(nil).ResumeData.Fingerprint(),
			Decision:          models.DecisionApplied,
			MatchPercentage:   85,
			Timestamp:         time.Now().UTC().Add(-time.Hour),
		},
	}

	run, err := h.engine.Run(context.Background(), testRequest([]string{"job-strong"}))
	require.NoError(t, err)

	// The adopted decision shapes the result, but the attempt that wrote
	// the record already notified; only the batch summary goes out.
	assert.True(t, run.Results[0].Applied)
	assert.Empty(t, h.dispatcher.byType(notify.TypeApplicationSubmitted))
	assert.Len(t, h.dispatcher.byType(notify.TypeBatchCompleted), 1)
}

type failingDispatcher struct {
	mu    sync.Mutex
	calls int
}

func (f *failingDispatcher) Dispatch(ctx context.Context, event notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return errors.New("smtp down")
}

// ==========================
// Concurrency Tests
// ==========================

func TestEngine_Run_RealLimiterSharedAcrossWorkers(t *testing.T) {
	postings := make([]models.JobPosting, 0, 8)
	ids := make([]string, 0, 8)
	for _, p := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		postings = append(postings, models.JobPosting{
			ID:          "job-" + p,
			Title:       "Go Engineer",
			Description: "go kubernetes aws postgres redis",
			Platform:    models.PlatformLinkedIn,
		})
		ids = append(ids, "job-"+p)
	}

	h := newHarness(t, Config{WorkerCount: 4, MaxSubmitAttempts: 2}, postings)
	h.engine.limiter = ratelimit.NewTokenBucket(3, 0.0001)

	run, err := h.engine.Run(context.Background(), testRequest(ids))
	require.NoError(t, err)

	// Burst capacity 3 with negligible refill: exactly 3 submissions,
	// the rest fail as rate limited.
	assert.Equal(t, 3, run.Submitted)
	assert.Equal(t, 5, run.Failed)
	for _, r := range run.Results {
		if !r.Applied {
			assert.Equal(t, models.ReasonRateLimited, r.Reason)
		}
	}
}
