package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/swiftdropng/swiftdrop-backend/pkg/logger"
)

const expiryBatchSize = 200

// staleRequestExpirer cancels requests that sat open for bids past a cutoff.
type staleRequestExpirer interface {
	ExpireStaleOpen(ctx context.Context, cutoff time.Time, limit int) (int, error)
}

// RequestExpiryJobParams configure the stale request sweep.
type RequestExpiryJobParams struct {
	Logger   *logger.Logger
	Requests staleRequestExpirer
	// OpenTTL is how long a request may stay open for bids.
	OpenTTL time.Duration
}

// NewRequestExpiryJob builds the cron job that expires requests whose bidding
// window has lapsed without an acceptance.
func NewRequestExpiryJob(params RequestExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Requests == nil {
		return nil, fmt.Errorf("requests service required")
	}
	if params.OpenTTL <= 0 {
		return nil, fmt.Errorf("open ttl must be positive")
	}
	return &requestExpiryJob{
		logg:     params.Logger,
		requests: params.Requests,
		openTTL:  params.OpenTTL,
		now:      time.Now,
	}, nil
}

type requestExpiryJob struct {
	logg     *logger.Logger
	requests staleRequestExpirer
	openTTL  time.Duration
	now      func() time.Time
}

func (j *requestExpiryJob) Name() string { return "request-expiry" }

func (j *requestExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.openTTL)

	var errs error
	total := 0
	for {
		expired, err := j.requests.ExpireStaleOpen(ctx, cutoff, expiryBatchSize)
		total += expired
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire stale requests: %w", err))
			break
		}
		if expired < expiryBatchSize {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": total, "cutoff": cutoff})
	j.logg.Info(logCtx, "request expiry sweep complete")
	return errs
}
