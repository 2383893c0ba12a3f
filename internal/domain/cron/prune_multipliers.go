package cron

import (
	"context"
	"errors"
	"time"

	"github.com/questx-lab/gamification/internal/repository"
	"github.com/questx-lab/gamification/pkg/xcontext"
	"gorm.io/gorm"
)

const pruneBatchSize = 100

// PruneMultipliersCronJob removes expired multipliers from user progresses.
type PruneMultipliersCronJob struct {
	userProgressRepo repository.UserProgressRepository
	interval         time.Duration
	now              func() time.Time
}

func NewPruneMultipliersCronJob(
	userProgressRepo repository.UserProgressRepository,
	interval time.Duration,
) *PruneMultipliersCronJob {
	return &PruneMultipliersCronJob{
		userProgressRepo: userProgressRepo,
		interval:         interval,
		now:              time.Now,
	}
}

func (job *PruneMultipliersCronJob) Do(ctx context.Context) {
	now := job.now()
	pruned := 0
	offset := 0
	for {
		progresses, err := job.userProgressRepo.GetListHavingMultipliers(ctx, offset, pruneBatchSize)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get user progresses having multipliers: %v", err)
			return
		}

		remaining := 0
		for _, p := range progresses {
			left, err := job.prune(ctx, p.UserID, now)
			if err != nil {
				xcontext.Logger(ctx).Warnf("Cannot prune multipliers of user %s: %v", p.UserID, err)
				remaining++
				continue
			}

			if left > 0 {
				remaining++
			}

			if left < len(p.ActiveMultipliers) {
				pruned++
			}
		}

		// Users having no multiplier left are out of the next page.
		offset += remaining
		if len(progresses) < pruneBatchSize {
			break
		}
	}

	if pruned > 0 {
		xcontext.Logger(ctx).Infof("Pruned expired multipliers of %d users", pruned)
	}
}

// prune returns the number of multipliers left.
func (job *PruneMultipliersCronJob) prune(ctx context.Context, userID string, now time.Time) (int, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.RollbackDBTransaction(ctx)

	progress, err := job.userProgressRepo.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}

		return 0, err
	}

	unexpired := progress.UnexpiredMultipliers(now)
	if len(unexpired) == len(progress.ActiveMultipliers) {
		return len(unexpired), nil
	}

	if err := job.userProgressRepo.UpdateMultipliers(ctx, userID, unexpired); err != nil {
		return 0, err
	}

	if err := xcontext.CommitDBTransaction(ctx); err != nil {
		return 0, err
	}

	return len(unexpired), nil
}

func (job *PruneMultipliersCronJob) RunNow() bool {
	return true
}

func (job *PruneMultipliersCronJob) Next() time.Time {
	return job.now().Add(job.interval)
}
