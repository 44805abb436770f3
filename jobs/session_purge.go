package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/campus-records/records/internal/jobs"
)

// SessionPurger deletes session audit records that expired before a cutoff.
type SessionPurger interface {
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// SessionPurgeJob removes stale session audit rows.
type SessionPurgeJob struct {
	Purger  SessionPurger
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSessionPurgeJob wires dependencies for the purge handler.
func NewSessionPurgeJob(purger SessionPurger, logger *slog.Logger, metrics *jobmetrics.Metrics) *SessionPurgeJob {
	return &SessionPurgeJob{
		Purger:  purger,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskSessionPurge tasks.
func (j *SessionPurgeJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Purger == nil {
		return errors.New("session purge: handler not configured")
	}
	var payload SessionPurgePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("session purge: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	tracker := j.Metrics.Track(TaskSessionPurge)
	defer func() {
		err = tracker.End(err)
	}()

	cutoff := j.clock().Add(-time.Duration(payload.GraceSeconds) * time.Second)
	purged, err := j.Purger.PurgeExpired(ctx, cutoff)
	if err != nil {
		j.logger().Error("purge sessions", slog.Any("error", err))
		return err
	}
	j.Metrics.AddPurged(purged)
	j.logger().Info("purged sessions", slog.Int64("rows", purged), slog.Time("cutoff", cutoff))
	return nil
}

func (j *SessionPurgeJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
