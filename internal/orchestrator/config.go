// internal/orchestrator/config.go
package orchestrator

import "time"

// Config controls batch execution.
type Config struct {
	// WorkerCount bounds concurrent job processing.
	WorkerCount int

	// MaxSubmitAttempts bounds limiter-deferred retries per job before
	// the job fails as rate_limited.
	MaxSubmitAttempts int

	// MaxRetryWait caps how long a single limiter deferral sleeps.
	MaxRetryWait time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		WorkerCount:       4,
		MaxSubmitAttempts: 3,
		MaxRetryWait:      30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	if c.WorkerCount < 1 {
		c.WorkerCount = 4
	}
	if c.MaxSubmitAttempts < 1 {
		c.MaxSubmitAttempts = 3
	}
	if c.MaxRetryWait <= 0 {
		c.MaxRetryWait = 30 * time.Second
	}
	return c
}
