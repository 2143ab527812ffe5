// internal/orchestrator/engine.go
package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/optimizer"
	"github.com/MadhavBytes/AI-job-hunter/internal/adapters/submitter"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/metrics"
	"github.com/MadhavBytes/AI-job-hunter/internal/common/observability"
	"github.com/MadhavBytes/AI-job-hunter/internal/jobs"
	"github.com/MadhavBytes/AI-job-hunter/internal/ledger"
	"github.com/MadhavBytes/AI-job-hunter/internal/models"
	"github.com/MadhavBytes/AI-job-hunter/internal/notify"
	"github.com/MadhavBytes/AI-job-hunter/internal/ratelimit"
	"github.com/MadhavBytes/AI-job-hunter/internal/scorer"

	"github.com/google/uuid"
)

// CredentialValidator is the slice of the credentials service the
// engine needs: a single validation outcome per batch.
type CredentialValidator interface {
	Validate(ctx context.Context, credential models.Credential) (models.CredentialState, error)
}

// Engine drives a batch of job applications through the per-job state
// machine: Pending -> Scored -> {Skipped | Optimizing -> Submitting ->
// {Applied | Failed}}.
type Engine struct {
	config     Config
	scorer     scorer.MatchScorer
	validator  CredentialValidator
	optimizer  optimizer.ResumeOptimizer
	submitter  submitter.ApplicationSubmitter
	limiter    ratelimit.Limiter
	ledger     ledger.Ledger
	dispatcher notify.Dispatcher
	provider   jobs.Provider
	obs        *observability.Observability
	logger     logger.Logger

	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// Deps carries the engine's collaborators. Dispatcher is wrapped so
// notification failures never affect outcomes; a nil Dispatcher gets a
// log-only dispatcher.
type Deps struct {
	Scorer     scorer.MatchScorer
	Validator  CredentialValidator
	Optimizer  optimizer.ResumeOptimizer
	Submitter  submitter.ApplicationSubmitter
	Limiter    ratelimit.Limiter
	Ledger     ledger.Ledger
	Dispatcher notify.Dispatcher
	Provider   jobs.Provider
	Obs        *observability.Observability
	Logger     logger.Logger
}

func NewEngine(config Config, deps Deps) *Engine {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = notify.NewLogDispatcher(log)
	}
	return &Engine{
		config:     config.withDefaults(),
		scorer:     deps.Scorer,
		validator:  deps.Validator,
		optimizer:  deps.Optimizer,
		submitter:  deps.Submitter,
		limiter:    deps.Limiter,
		ledger:     deps.Ledger,
		dispatcher: notify.NewBestEffort(dispatcher, log),
		provider:   deps.Provider,
		obs:        deps.Obs,
		logger:     log.WithFields(map[string]interface{}{"component": "orchestrator"}),
		sleep:      sleepWithContext,
		now:        time.Now,
	}
}

// Run executes one batch. The returned run always has exactly one
// result per requested job id, in the caller's order.
func (e *Engine) Run(ctx context.Context, request models.BatchRequest) (models.BatchRun, error) {
	run := models.BatchRun{
		RunID:     uuid.New().String(),
		TotalJobs: len(request.JobIDs),
		StartedAt: e.now().UTC(),
	}
	metrics.BatchesStarted.Inc()

	log := e.logger.WithFields(map[string]interface{}{
		"runId":     run.RunID,
		"totalJobs": run.TotalJobs,
		"platform":  request.Credentials.Platform.String(),
	})
	log.Info("batch started", nil)

	// Credential validation is a barrier: no worker starts until the
	// credential is valid or resolved.
	state, err := e.validator.Validate(ctx, request.Credentials)
	if err != nil {
		log.WithError(err).Error("credential validation errored", nil)
	}
	if !state.Status.Usable() {
		run.Halted = true
		run.HaltReason = models.ReasonCredentialUnresolved
		run.Results = e.haltedResults(request)
		run.FinishedAt = e.now().UTC()
		metrics.BatchesHalted.WithLabelValues(string(models.ReasonCredentialUnresolved)).Inc()
		if e.obs != nil {
			e.obs.RecordBatchDuration(ctx, run.FinishedAt.Sub(run.StartedAt), true)
		}
		log.Warn("batch halted: credentials unresolved", map[string]interface{}{
			"credentialStatus": string(state.Status),
		})
		return run, nil
	}

	provider := e.provider
	if len(request.JobPostings) > 0 {
		provider = jobs.NewStaticProvider(request.JobPostings)
	}
	fingerprint := request.ResumeData.Fingerprint()

	results := make([]models.JobResult, len(request.JobIDs))
	indexes := make(chan int, len(request.JobIDs))
	seen := make(map[string]bool, len(request.JobIDs))
	for i, jobID := range request.JobIDs {
		if seen[jobID] {
			// A repeated id resolves once per batch. Later occurrences
			// never enter the pipeline, so two workers can never race the
			// same (jobId, fingerprint) past the ledger lookup.
			results[i] = models.JobResult{
				JobID:     jobID,
				Applied:   false,
				Timestamp: e.now().UTC(),
				Reason:    models.ReasonDuplicate,
			}
			continue
		}
		seen[jobID] = true
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	for w := 0; w < e.config.WorkerCount; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				jobID := request.JobIDs[i]
				if ctx.Err() != nil {
					// Undispatched under cancellation. No ledger write so
					// a re-run picks the job up again.
					results[i] = models.JobResult{
						JobID:     jobID,
						Applied:   false,
						Timestamp: e.now().UTC(),
						Reason:    models.ReasonCancelled,
					}
					continue
				}
				// A dispatched job runs to its terminal state even if the
				// batch is cancelled mid-flight.
				jobCtx := context.WithoutCancel(ctx)
				results[i] = e.processJob(jobCtx, provider, request, jobID, fingerprint)
			}
		}()
	}
	wg.Wait()

	run.Results = results
	for _, r := range results {
		switch {
		case r.Applied:
			run.Submitted++
		case isFailure(r.Reason):
			run.Failed++
		default:
			run.Skipped++
		}
	}
	run.FinishedAt = e.now().UTC()

	if e.obs != nil {
		e.obs.RecordBatchDuration(ctx, run.FinishedAt.Sub(run.StartedAt), false)
	}
	e.dispatcher.Dispatch(ctx, notify.Event{
		Type:      notify.TypeBatchCompleted,
		Recipient: request.ResumeData.Email,
		Priority:  notify.PriorityNormal,
		Metadata: map[string]interface{}{
			"submitted": run.Submitted,
			"skipped":   run.Skipped,
			"failed":    run.Failed,
		},
		Timestamp: e.now().UTC(),
	})

	log.Info("batch finished", map[string]interface{}{
		"submitted": run.Submitted,
		"skipped":   run.Skipped,
		"failed":    run.Failed,
	})
	return run, nil
}

// haltedResults reports every requested job as credential_unresolved.
func (e *Engine) haltedResults(request models.BatchRequest) []models.JobResult {
	results := make([]models.JobResult, len(request.JobIDs))
	now := e.now().UTC()
	for i, jobID := range request.JobIDs {
		results[i] = models.JobResult{
			JobID:     jobID,
			Applied:   false,
			Timestamp: now,
			Reason:    models.ReasonCredentialUnresolved,
		}
	}
	return results
}

func (e *Engine) processJob(ctx context.Context, provider jobs.Provider, request models.BatchRequest, jobID, fingerprint string) models.JobResult {
	started := e.now()
	metrics.JobsActive.Inc()
	defer metrics.JobsActive.Dec()

	result := e.runStateMachine(ctx, provider, request, jobID, fingerprint)

	decision := models.DecisionSkipped
	if result.Applied {
		decision = models.DecisionApplied
	} else if isFailure(result.Reason) {
		decision = models.DecisionFailed
	}
	metrics.JobDuration.WithLabelValues(string(decision)).Observe(e.now().Sub(started).Seconds())
	if e.obs != nil {
		e.obs.RecordJobProcessed(ctx, string(decision))
		e.obs.RecordJobDuration(ctx, e.now().Sub(started), string(decision))
	}
	return result
}

func (e *Engine) runStateMachine(ctx context.Context, provider jobs.Provider, request models.BatchRequest, jobID, fingerprint string) models.JobResult {
	log := e.logger.WithFields(map[string]interface{}{"jobId": jobID})

	posting, err := provider.Get(ctx, jobID)
	if err != nil {
		log.WithError(err).Warn("posting unavailable", nil)
		return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
			JobID:             jobID,
			ResumeFingerprint: fingerprint,
			Decision:          models.DecisionFailed,
			Reason:            models.ReasonPostingUnavailable,
			Error:             err.Error(),
		})
	}

	// Filters cut before scoring-based decisions.
	if !matchesFilters(request.Filters, *posting) {
		return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
			JobID:             jobID,
			ResumeFingerprint: fingerprint,
			Decision:          models.DecisionSkipped,
			Reason:            models.ReasonFiltered,
		})
	}

	match := e.scorer.Score(request.ResumeData, *posting)
	log.Debug("job scored", map[string]interface{}{
		"percentage":     match.Percentage,
		"recommendation": string(match.Recommendation),
	})

	switch match.Recommendation {
	case models.RecommendationWeak:
		return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
			JobID:             jobID,
			ResumeFingerprint: fingerprint,
			Decision:          models.DecisionSkipped,
			MatchPercentage:   match.Percentage,
			MatchedSkills:     match.MatchedSkills,
			Reason:            models.ReasonWeakMatch,
		})
	case models.RecommendationModerate:
		if !request.Filters.AllowModerateMatches {
			return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
				JobID:             jobID,
				ResumeFingerprint: fingerprint,
				Decision:          models.DecisionSkipped,
				MatchPercentage:   match.Percentage,
				MatchedSkills:     match.MatchedSkills,
				Reason:            models.ReasonNeedsConfirmation,
			})
		}
	}

	// Idempotency short-circuit before any side effect.
	existing, err := e.ledger.Find(ctx, jobID, fingerprint)
	if err != nil {
		log.WithError(err).Error("ledger lookup failed", nil)
	}
	if existing != nil {
		log.Info("adopting prior decision", map[string]interface{}{
			"decision": string(existing.Decision),
		})
		return resultFromRecord(*existing, e.now().UTC())
	}

	optimized, err := e.optimizer.Optimize(ctx, request.ResumeData, *posting, match)
	if err != nil {
		log.WithError(err).Warn("optimization failed", nil)
		return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
			JobID:             jobID,
			ResumeFingerprint: fingerprint,
			Decision:          models.DecisionFailed,
			MatchPercentage:   match.Percentage,
			MatchedSkills:     match.MatchedSkills,
			Reason:            models.ReasonOptimizationFailed,
			Error:             err.Error(),
		})
	}

	limiterKey := request.Credentials.Identity()
	for attempt := 1; ; attempt++ {
		ok, retryAfter := e.limiter.Acquire(limiterKey)
		if ok {
			break
		}
		metrics.RateLimitDeferrals.WithLabelValues(posting.Platform.String()).Inc()
		if attempt >= e.config.MaxSubmitAttempts {
			log.Warn("rate limit attempts exhausted", map[string]interface{}{
				"attempts": attempt,
			})
			return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
				JobID:             jobID,
				ResumeFingerprint: fingerprint,
				Decision:          models.DecisionFailed,
				MatchPercentage:   match.Percentage,
				MatchedSkills:     match.MatchedSkills,
				Reason:            models.ReasonRateLimited,
			})
		}
		if retryAfter > e.config.MaxRetryWait {
			retryAfter = e.config.MaxRetryWait
		}
		log.Debug("submission deferred by rate limiter", map[string]interface{}{
			"retryAfter": retryAfter.String(),
			"attempt":    attempt,
		})
		e.sleep(ctx, retryAfter)
	}

	receipt, err := e.submitter.Submit(ctx, *posting, *optimized, request.Credentials)
	if err != nil {
		log.WithError(err).Warn("submission failed", nil)
		return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
			JobID:             jobID,
			ResumeFingerprint: fingerprint,
			Decision:          models.DecisionFailed,
			MatchPercentage:   match.Percentage,
			MatchedSkills:     match.MatchedSkills,
			Reason:            models.ReasonSubmissionFailed,
			Error:             err.Error(),
		})
	}

	log.Info("application submitted", map[string]interface{}{
		"confirmationId": receipt.ConfirmationID,
	})
	return e.finish(ctx, request, jobID, fingerprint, models.ApplicationRecord{
		JobID:             jobID,
		ResumeFingerprint: fingerprint,
		Decision:          models.DecisionApplied,
		MatchPercentage:   match.Percentage,
		MatchedSkills:     match.MatchedSkills,
	})
}

// finish appends the terminal record to the ledger, emits the per-job
// notification and builds the caller-facing result. The append is the
// atomic idempotency guard: a concurrent duplicate adopts the existing
// record instead.
func (e *Engine) finish(ctx context.Context, request models.BatchRequest, jobID, fingerprint string, record models.ApplicationRecord) models.JobResult {
	record.Timestamp = e.now().UTC()

	adopted := false
	outcome, err := e.ledger.Append(ctx, record)
	if err != nil {
		e.logger.WithError(err).Error("ledger append failed", map[string]interface{}{
			"jobId": jobID,
		})
	} else if !outcome.Written && outcome.Existing != nil {
		record = *outcome.Existing
		adopted = true
	}

	metrics.ApplicationsProcessed.WithLabelValues(string(record.Decision), string(record.Reason)).Inc()

	if adopted {
		// The attempt that wrote the record already notified.
		return resultFromRecord(record, e.now().UTC())
	}

	eventType := notify.TypeApplicationSkipped
	priority := notify.PriorityNormal
	switch record.Decision {
	case models.DecisionApplied:
		eventType = notify.TypeApplicationSubmitted
	case models.DecisionFailed:
		eventType = notify.TypeApplicationFailed
		priority = notify.PriorityHigh
	}
	e.dispatcher.Dispatch(ctx, notify.Event{
		Type:      eventType,
		Recipient: request.ResumeData.Email,
		Phone:     request.ResumeData.Phone,
		Priority:  priority,
		JobID:     jobID,
		Metadata: map[string]interface{}{
			"matchPercentage": record.MatchPercentage,
			"reason":          string(record.Reason),
		},
		Timestamp: record.Timestamp,
	})

	return resultFromRecord(record, record.Timestamp)
}

func resultFromRecord(record models.ApplicationRecord, ts time.Time) models.JobResult {
	return models.JobResult{
		JobID:           record.JobID,
		Applied:         record.Decision == models.DecisionApplied,
		MatchPercentage: record.MatchPercentage,
		Timestamp:       ts,
		MatchedKeywords: record.MatchedSkills,
		Reason:          record.Reason,
	}
}

func isFailure(reason models.Reason) bool {
	switch reason {
	case models.ReasonOptimizationFailed,
		models.ReasonSubmissionFailed,
		models.ReasonRateLimited,
		models.ReasonPostingUnavailable:
		return true
	}
	return false
}

func matchesFilters(filters models.BatchFilters, posting models.JobPosting) bool {
	if filters.Location != "" &&
		!strings.Contains(strings.ToLower(posting.Location), strings.ToLower(filters.Location)) {
		return false
	}
	if filters.ExperienceLevel != "" &&
		!strings.EqualFold(posting.ExperienceLevel, filters.ExperienceLevel) {
		return false
	}
	return true
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
