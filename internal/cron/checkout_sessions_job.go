package cron

import (
	"context"
	"fmt"

	"github.com/muraqqa/storefront/pkg/logger"
)

type sessionSweeper interface {
	Sweep() int
}

// NewCheckoutSessionsJob evicts idle checkout sessions from the in-process registry.
func NewCheckoutSessionsJob(logg *logger.Logger, sessions sessionSweeper) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session registry required")
	}
	return &checkoutSessionsJob{logg: logg, sessions: sessions}, nil
}

type checkoutSessionsJob struct {
	logg     *logger.Logger
	sessions sessionSweeper
}

func (j *checkoutSessionsJob) Name() string { return "checkout-sessions" }

func (j *checkoutSessionsJob) Run(ctx context.Context) error {
	if evicted := j.sessions.Sweep(); evicted > 0 {
		j.logg.Info(j.logg.WithField(ctx, "evicted", evicted), "cron.checkout_sessions_swept")
	}
	return nil
}
