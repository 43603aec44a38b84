package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
)

const (
	outboxRetentionDays = 30
	outboxMaxAttempts   = 10
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRepo interface {
	DeleteSettledBefore(tx *gorm.DB, cutoff time.Time, maxAttempts int) (int64, error)
	CountPending(tx *gorm.DB) (int64, error)
}

type OutboxJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	Repository  outboxRepo
	Metrics     *metrics.OutboxMetrics
	Retention   int
	MaxAttempts int
	Now         func() time.Time
}

func (p OutboxJobParams) validate() error {
	if p.Logger == nil {
		return errors.New("logger required")
	}
	if p.DB == nil {
		return errors.New("db runner required")
	}
	if p.Repository == nil {
		return errors.New("outbox repository required")
	}
	return nil
}

// NewOutboxRetentionJob deletes order events that were published, or that
// exhausted their publish attempts, more than Retention days ago.
func NewOutboxRetentionJob(p OutboxJobParams) (Job, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Retention <= 0 {
		p.Retention = outboxRetentionDays
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = outboxMaxAttempts
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &outboxRetentionJob{p: p}, nil
}

type outboxRetentionJob struct {
	p OutboxJobParams
}

func (j *outboxRetentionJob) Name() string { return "outbox-retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.p.Now().UTC().AddDate(0, 0, -j.p.Retention)
	var deleted int64
	err := j.p.DB.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.p.Repository.DeleteSettledBefore(tx, cutoff, j.p.MaxAttempts)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.p.Logger.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.p.Retention,
		"rows_deleted":   deleted,
	})
	j.p.Logger.Info(logCtx, "outbox retention cleanup complete")
	return nil
}

// NewOutboxBacklogJob exports the number of unpublished events as a gauge.
func NewOutboxBacklogJob(p OutboxJobParams) (Job, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &outboxBacklogJob{p: p}, nil
}

type outboxBacklogJob struct {
	p OutboxJobParams
}

func (j *outboxBacklogJob) Name() string { return "outbox-backlog" }

func (j *outboxBacklogJob) Run(ctx context.Context) error {
	var pending int64
	err := j.p.DB.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.p.Repository.CountPending(tx)
		pending = n
		return err
	})
	if err != nil {
		return fmt.Errorf("outbox backlog: %w", err)
	}
	j.p.Metrics.SetPending(pending)
	if pending > 0 {
		j.p.Logger.Info(j.p.Logger.WithField(ctx, "pending", pending), "outbox backlog")
	}
	return nil
}
