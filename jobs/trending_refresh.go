package jobs

import (
	"context"
	"time"

	"cinelist/logger"
)

// TrendingRefresher reloads the cached trending list
type TrendingRefresher interface {
	RefreshTrending(ctx context.Context) error
}

// TrendingRefreshJob keeps the trending list warm ahead of its cache expiry
type TrendingRefreshJob struct {
	refresher TrendingRefresher
	interval  time.Duration
	timeout   time.Duration
	logger    *logger.Logger
}

// NewTrendingRefreshJob creates a new trending refresh job
func NewTrendingRefreshJob(refresher TrendingRefresher, interval time.Duration, log *logger.Logger) *TrendingRefreshJob {
	if log == nil {
		log = logger.Nop()
	}
	return &TrendingRefreshJob{
		refresher: refresher,
		interval:  interval,
		timeout:   30 * time.Second,
		logger:    log,
	}
}

// Interval returns how often the job runs
func (j *TrendingRefreshJob) Interval() time.Duration {
	return j.interval
}

// Run performs one refresh bounded by the job timeout
func (j *TrendingRefreshJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	ctx = j.logger.WithField(ctx, "job", "trending_refresh")
	start := time.Now()
	if err := j.refresher.RefreshTrending(ctx); err != nil {
		j.logger.Warn(ctx, "trending refresh failed", err)
		return err
	}
	j.logger.Debug(j.logger.WithField(ctx, "elapsed_ms", time.Since(start).Milliseconds()), "trending list refreshed")
	return nil
}
