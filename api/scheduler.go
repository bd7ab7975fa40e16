/*
scheduler.go - Periodic policy refresh

PURPOSE:
  Reloads the group working-hours document from its source on a fixed
  interval, so an edit made outside this process (another instance
  writing the policies row, an operator replacing the policy file) is
  picked up without a restart.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - A failed refresh keeps the previous set in force and is logged
  - Each run is counted so the last outcome can be inspected
    (GET /api/group-working-hours/refresh)

CONFIGURATION:
  - CheckInterval: POLICY_REFRESH_INTERVAL (0 disables the scheduler)

USAGE:
  scheduler := NewPolicyRefreshScheduler(registry, interval, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - factory/registry.go: Registry.Refresh
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

// PolicyRefresher is the part of factory.Registry the scheduler drives.
type PolicyRefresher interface {
	Refresh(ctx context.Context) (attendance.PolicySet, error)
}

// RefreshStatus is the outcome of the last run.
type RefreshStatus struct {
	Runs      int
	Failures  int
	LastRun   time.Time
	LastError string
}

// PolicyRefreshScheduler refreshes the cached policy set on a ticker.
type PolicyRefreshScheduler struct {
	Registry      PolicyRefresher
	CheckInterval time.Duration
	Enabled       bool
	Logger        *slog.Logger

	ticker    *time.Ticker
	startedAt time.Time
	stop      chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex

	statusMu sync.Mutex
	status   RefreshStatus
}

// NewPolicyRefreshScheduler creates a scheduler. A non-positive interval
// yields a disabled scheduler.
func NewPolicyRefreshScheduler(registry PolicyRefresher, interval time.Duration, logger *slog.Logger) *PolicyRefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PolicyRefreshScheduler{
		Registry:      registry,
		CheckInterval: interval,
		Enabled:       interval > 0,
		Logger:        logger,
	}
}

// Start begins the scheduler.
func (ps *PolicyRefreshScheduler) Start() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if !ps.Enabled {
		ps.Logger.Info("policy refresh disabled")
		return
	}
	if ps.ticker != nil {
		return
	}

	ps.ticker = time.NewTicker(ps.CheckInterval)
	ps.startedAt = time.Now()
	ps.stop = make(chan struct{})
	ps.wg.Add(1)
	go ps.run()

	ps.Logger.Info("policy refresh started", "interval", ps.CheckInterval.String())
}

// Stop stops the scheduler and waits for an in-flight refresh.
func (ps *PolicyRefreshScheduler) Stop() {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker != nil {
		ps.ticker.Stop()
		close(ps.stop)
		ps.wg.Wait()
		ps.ticker = nil
		ps.Logger.Info("policy refresh stopped")
	}
}

func (ps *PolicyRefreshScheduler) run() {
	defer ps.wg.Done()

	for {
		select {
		case <-ps.ticker.C:
			ps.RunNow()
		case <-ps.stop:
			return
		}
	}
}

// RunNow refreshes once, synchronously.
func (ps *PolicyRefreshScheduler) RunNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := ps.Registry.Refresh(ctx)

	ps.statusMu.Lock()
	ps.status.Runs++
	ps.status.LastRun = time.Now()
	ps.status.LastError = ""
	if err != nil {
		ps.status.Failures++
		ps.status.LastError = err.Error()
	}
	ps.statusMu.Unlock()

	if err != nil {
		ps.Logger.Error("policy refresh failed", "error", err)
		return
	}
	ps.Logger.Debug("policy refreshed")
}

// Status returns a copy of the last run's outcome.
func (ps *PolicyRefreshScheduler) Status() RefreshStatus {
	ps.statusMu.Lock()
	defer ps.statusMu.Unlock()
	return ps.status
}

// NextRunTime returns when the ticker fires next. ok is false while the
// scheduler is not running.
func (ps *PolicyRefreshScheduler) NextRunTime() (next time.Time, ok bool) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.ticker == nil {
		return time.Time{}, false
	}
	ticks := time.Since(ps.startedAt)/ps.CheckInterval + 1
	return ps.startedAt.Add(ticks * ps.CheckInterval), true
}
