package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/pos-inventory/pkg/logger"
)

const (
	defaultRetentionDays    = 30
	defaultTerminalAttempts = 10
	defaultPruneBatch       = 500
	// maxPruneBatches bounds one run; the next cycle picks up the rest.
	maxPruneBatches = 200
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	PruneBatch(ctx context.Context, tx *gorm.DB, cutoff time.Time, terminalAttempts, limit int) (int64, error)
}

// OutboxRetentionJobParams configure outbox pruning. Zero values fall back
// to 30 days, 10 attempts and batches of 500 rows.
type OutboxRetentionJobParams struct {
	Logger           *logger.Logger
	DB               txRunner
	Repository       outboxPruner
	RetentionDays    int
	TerminalAttempts int
	BatchSize        int
}

type outboxRetentionJob struct {
	logg             *logger.Logger
	db               txRunner
	repo             outboxPruner
	retention        time.Duration
	terminalAttempts int
	batchSize        int
	now              func() time.Time
}

func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	switch {
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Repository == nil:
		return nil, fmt.Errorf("outbox repository required")
	}
	return &outboxRetentionJob{
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		retention:        time.Duration(orDefault(params.RetentionDays, defaultRetentionDays)) * 24 * time.Hour,
		terminalAttempts: orDefault(params.TerminalAttempts, defaultTerminalAttempts),
		batchSize:        orDefault(params.BatchSize, defaultPruneBatch),
		now:              time.Now,
	}, nil
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

// Run deletes delivered and dead-lettered outbox rows in short transactions
// so the publisher's row locks are never held behind one large delete.
func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var total int64
	batches := 0
	for ; batches < maxPruneBatches; batches++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("outbox retention interrupted after %d rows: %w", total, err)
		}
		var deleted int64
		err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
			var err error
			deleted, err = j.repo.PruneBatch(ctx, tx, cutoff, j.terminalAttempts, j.batchSize)
			return err
		})
		if err != nil {
			return fmt.Errorf("outbox retention batch %d: %w", batches+1, err)
		}
		total += deleted
		if deleted < int64(j.batchSize) {
			batches++
			break
		}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":            cutoff,
		"terminal_attempts": j.terminalAttempts,
		"batches":           batches,
		"rows_deleted":      total,
	}), "outbox retention complete")
	return nil
}

func orDefault(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
