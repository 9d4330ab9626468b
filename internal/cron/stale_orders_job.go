package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/muraqqa/storefront/pkg/db/models"
	"github.com/muraqqa/storefront/pkg/enums"
	"github.com/muraqqa/storefront/pkg/logger"
)

const defaultStaleBatch = 100

type staleOrderReader interface {
	FindStaleBefore(ctx context.Context, status enums.OrderStatus, cutoff time.Time, limit int) ([]models.Order, error)
}

type orderCanceler interface {
	Cancel(ctx context.Context, id uuid.UUID) error
}

// StaleOrderJobParams configure the stale order job. A zero TTL disables
// that half of the job.
type StaleOrderJobParams struct {
	Logger      *logger.Logger
	Reader      staleOrderReader
	Orders      orderCanceler
	PendingTTL  time.Duration
	TransferTTL time.Duration
	BatchSize   int
}

// NewStaleOrderJob cancels card orders whose payment never completed and
// bank transfer orders whose transfer never arrived.
func NewStaleOrderJob(params StaleOrderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Reader == nil {
		return nil, fmt.Errorf("stale order reader required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order canceler required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultStaleBatch
	}
	return &staleOrderJob{
		logg:   params.Logger,
		reader: params.Reader,
		orders: params.Orders,
		rules: []staleRule{
			{status: enums.OrderStatusPending, ttl: params.PendingTTL},
			{status: enums.OrderStatusAwaitingTransfer, ttl: params.TransferTTL},
		},
		batch: batch,
		now:   time.Now,
	}, nil
}

type staleRule struct {
	status enums.OrderStatus
	ttl    time.Duration
}

type staleOrderJob struct {
	logg   *logger.Logger
	reader staleOrderReader
	orders orderCanceler
	rules  []staleRule
	batch  int
	now    func() time.Time
}

func (j *staleOrderJob) Name() string { return "stale-orders" }

func (j *staleOrderJob) Run(ctx context.Context) error {
	var errs error
	for _, rule := range j.rules {
		if rule.ttl <= 0 {
			continue
		}
		errs = multierr.Append(errs, j.expire(ctx, rule))
	}
	return errs
}

func (j *staleOrderJob) expire(ctx context.Context, rule staleRule) error {
	cutoff := j.now().UTC().Add(-rule.ttl)
	stale, err := j.reader.FindStaleBefore(ctx, rule.status, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query %s orders: %w", rule.status, err)
	}
	var (
		errs     error
		canceled int
	)
	for _, order := range stale {
		if err := j.orders.Cancel(ctx, order.ID); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("cancel order %s: %w", order.ID, err))
			continue
		}
		canceled++
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"status":   rule.status,
		"cutoff":   cutoff,
		"found":    len(stale),
		"canceled": canceled,
	})
	j.logg.Info(logCtx, "cron.stale_orders_expired")
	return errs
}
