package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeSessionCleanup = "session:cleanup"
)

// SessionCleanupPayload carries the inactivity threshold for one sweep.
type SessionCleanupPayload struct {
	ThresholdMinutes int `json:"threshold_minutes"`
}

func NewSessionCleanupTask(payload SessionCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSessionCleanup, data), nil
}
