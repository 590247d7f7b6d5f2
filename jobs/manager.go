// Package jobs provides background job processing functionality.
package jobs

import (
	"context"
	"sync"
	"time"

	"cinelist/logger"
)

// JobManager handles background job execution
type JobManager struct {
	trendingJob *TrendingRefreshJob
	logger      *logger.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	running     bool
	mu          sync.RWMutex
}

// NewJobManager creates a new job manager
func NewJobManager(trendingJob *TrendingRefreshJob, log *logger.Logger) *JobManager {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		trendingJob: trendingJob,
		logger:      log,
		ctx:         ctx,
		cancel:      cancel,
		running:     false,
	}
}

// Start begins the job manager background processing
func (jm *JobManager) Start() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if jm.running {
		jm.logger.Info(jm.ctx, "job manager is already running")
		return
	}
	if jm.ctx.Err() != nil {
		jm.ctx, jm.cancel = context.WithCancel(context.Background())
	}

	jm.running = true
	jm.logger.Info(jm.ctx, "starting job manager")

	jm.wg.Add(1)
	go jm.runPeriodicTrendingRefresh(jm.ctx)
}

// Stop stops the job manager
func (jm *JobManager) Stop() {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	if !jm.running {
		// Still wait for any manually triggered jobs
		jm.wg.Wait()
		return
	}

	jm.logger.Info(jm.ctx, "stopping job manager")
	jm.cancel()
	jm.running = false

	// Wait for all jobs to finish
	jm.wg.Wait()
	jm.logger.Info(context.Background(), "job manager stopped")
}

// IsRunning returns whether the job manager is currently running
func (jm *JobManager) IsRunning() bool {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	return jm.running
}

// TriggerTrendingRefresh immediately refreshes the trending list in the background
func (jm *JobManager) TriggerTrendingRefresh() {
	if jm.trendingJob == nil {
		jm.logger.Warn(context.Background(), "cannot trigger trending refresh: no job configured", nil)
		return
	}

	jm.mu.RLock()
	defer jm.mu.RUnlock()
	ctx := jm.ctx
	if ctx.Err() != nil {
		return
	}

	jm.wg.Add(1)
	go func() {
		defer jm.wg.Done()
		_ = jm.trendingJob.Run(ctx)
	}()
}

// runPeriodicTrendingRefresh runs the trending refresh job on its interval
func (jm *JobManager) runPeriodicTrendingRefresh(ctx context.Context) {
	defer jm.wg.Done()

	if jm.trendingJob == nil || jm.trendingJob.Interval() <= 0 {
		jm.logger.Info(ctx, "no trending refresh configured, skipping periodic refresh")
		<-ctx.Done()
		return
	}

	// Run immediately on startup
	_ = jm.trendingJob.Run(ctx)

	ticker := time.NewTicker(jm.trendingJob.Interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			jm.logger.Debug(context.Background(), "periodic trending refresh stopped")
			return
		case <-ticker.C:
			_ = jm.trendingJob.Run(ctx)
		}
	}
}
