// internal/notify/besteffort.go
package notify

import (
	"context"

	"github.com/MadhavBytes/AI-job-hunter/internal/common/logger"
)

// BestEffort wraps a dispatcher so delivery failures are logged and
// swallowed. Application outcomes must never depend on notification
// delivery.
type BestEffort struct {
	next   Dispatcher
	logger logger.Logger
}

func NewBestEffort(next Dispatcher, log logger.Logger) *BestEffort {
	return &BestEffort{next: next, logger: log}
}

func (b *BestEffort) Dispatch(ctx context.Context, event Event) error {
	if err := b.next.Dispatch(ctx, event); err != nil {
		b.logger.Warn("notification delivery failed", map[string]interface{}{
			"error": err,
			"type":  event.Type,
			"jobId": event.JobID,
		})
	}
	return nil
}

// LogDispatcher writes events to the log only. Default when no email
// transport is configured.
type LogDispatcher struct {
	logger logger.Logger
}

func NewLogDispatcher(log logger.Logger) *LogDispatcher {
	return &LogDispatcher{logger: log}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, event Event) error {
	d.logger.Info("notification", map[string]interface{}{
		"type":      event.Type,
		"recipient": event.Recipient,
		"jobId":     event.JobID,
		"priority":  event.Priority,
	})
	return nil
}
