package banksync

import (
	"context"
	"fmt"

	"budgie/internal/domain/user"
)

// SyncJob runs an incremental sync of all of one user's accounts. It
// implements scheduler.Job.
type SyncJob struct {
	usr    *user.User
	engine *Engine
}

func NewSyncJob(usr *user.User, engine *Engine) *SyncJob {
	return &SyncJob{usr: usr, engine: engine}
}

// Execute syncs every account of the user. Per-account failures are already
// classified inside the summary; the job only fails on errors that prevented
// the run itself.
func (j *SyncJob) Execute(ctx context.Context) error {
	summary, err := j.engine.SyncAllAccounts(ctx, j.usr.ID, false)
	if err != nil {
		return fmt.Errorf("failed to sync user %d: %w", j.usr.ID, err)
	}

	if summary.FailedSyncs > 0 && summary.SuccessfulSyncs == 0 && summary.TotalAccounts > 0 {
		return fmt.Errorf("all %d account syncs failed for user %d", summary.FailedSyncs, j.usr.ID)
	}

	return nil
}

func (j *SyncJob) UserID() int64 {
	return j.usr.ID
}

func (j *SyncJob) Description() string {
	return "bank transaction sync"
}
