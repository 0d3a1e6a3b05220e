package scheduler

import "context"

// Job is a unit of work runnable by the worker pool. Different job types can
// be scheduled side by side (sync jobs, cleanup jobs, notification jobs).
type Job interface {
	// Execute runs the job. Context should be respected for cancellation
	// and timeouts.
	Execute(ctx context.Context) error

	// UserID returns the user this job processes data for. Used for
	// logging and tracing.
	UserID() int64

	// Description returns a human-readable description of the job.
	Description() string
}
