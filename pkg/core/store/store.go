package store

import (
	"context"
	"errors"

	"quarterly_intel/pkg/models"
)

// ErrRunNotFound is returned when no run exists for a request id.
var ErrRunNotFound = errors.New("run not found")

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// RunStore records pipeline runs and their event trail.
type RunStore interface {
	StartRun(ctx context.Context, requestID, ticker string) error
	SaveRun(ctx context.Context, insights *models.DocumentInsights) error
	LoadRun(ctx context.Context, requestID string) (*models.DocumentInsights, error)
	LogEvent(ctx context.Context, requestID, kind string, payload interface{}) error
}

// RunCatalog reads finished runs back.
type RunCatalog interface {
	LoadRun(ctx context.Context, requestID string) (*models.DocumentInsights, error)
	// ListRuns returns completed runs for ticker (case-insensitive), newest
	// first; an empty ticker lists every completed run.
	ListRuns(ctx context.Context, ticker string) ([]*models.DocumentInsights, error)
}

// Event is one entry of a run's trail.
type Event struct {
	RequestID string      `json:"request_id"`
	Kind      string      `json:"kind"`
	Payload   interface{} `json:"payload"`
}
