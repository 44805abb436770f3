package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPurge is the task type that deletes expired session audit rows.
	TaskSessionPurge = "sessions:purge"
)

// SessionPurgePayload parameterises a purge run. Grace keeps rows for a
// while after expiry.
type SessionPurgePayload struct {
	GraceSeconds int `json:"grace_seconds"`
}

// NewSessionPurgeTask constructs an Asynq task.
func NewSessionPurgeTask(payload SessionPurgePayload) (*asynq.Task, error) {
	if payload.GraceSeconds < 0 {
		return nil, fmt.Errorf("jobs: negative grace %d", payload.GraceSeconds)
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPurge, data), nil
}
