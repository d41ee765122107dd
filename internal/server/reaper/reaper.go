// Package reaper periodically purges revocation records that can no longer
// match a live token, bounding the size of the revocation store.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gatekeeper/internal/server/repositories/revocations"
	"github.com/robfig/cron/v3"
)

// ErrSweepInProgress is returned by Sweep when another sweep has not finished.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Result summarizes one sweep.
type Result struct {
	Scanned int
	Removed int
	Failed  int
}

type Reaper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	validity    time.Duration
	period      time.Duration
	pageSize    int
	now         func() time.Time
	log         logging.Logger

	running atomic.Bool
}

type Option func(*Reaper)

func WithClock(now func() time.Time) Option {
	return func(r *Reaper) { r.now = now }
}

func WithPageSize(n int) Option {
	return func(r *Reaper) { r.pageSize = n }
}

// New returns a reaper dropping records older than validity, run every period.
func New(db *sql.DB, m repomanager.RepositoryManager, validity, period time.Duration, log logging.Logger, opts ...Option) *Reaper {
	r := &Reaper{
		db:          db,
		repomanager: m,
		validity:    validity,
		period:      period,
		pageSize:    revocations.DefaultPageSize,
		now:         time.Now,
		log:         log,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sweep removes every record with RevokedAt + validity before now.
// A traversal error ends the sweep and is returned; records not yet visited
// stay for the next sweep. A failed removal is counted and skipped.
func (r *Reaper) Sweep(ctx context.Context) (Result, error) {
	if !r.running.CompareAndSwap(false, true) {
		return Result{}, ErrSweepInProgress
	}
	defer r.running.Store(false)

	var res Result
	now := r.now()
	repo := r.repomanager.Revocations(r.db)

	for rec, err := range revocations.All(ctx, repo, r.pageSize) {
		if err != nil {
			r.log.Error(ctx, "sweep abandoned", "error", err, "scanned", res.Scanned, "removed", res.Removed)
			return res, fmt.Errorf("traverse revocations: %w", err)
		}
		res.Scanned++

		if !rec.StaleAt(r.validity).Before(now) {
			continue
		}
		if err := repo.Remove(ctx, rec); err != nil {
			res.Failed++
			r.log.Warn(ctx, "remove failed", "jti", rec.TokenID, "error", err)
			continue
		}
		res.Removed++
	}

	r.log.Info(ctx, "sweep finished", "scanned", res.Scanned, "removed", res.Removed, "failed", res.Failed)
	return res, nil
}

// Run schedules Sweep every period and blocks until ctx is cancelled. Ticks
// that fire while a sweep is still running are skipped. Run waits for an
// in-flight sweep before returning.
func (r *Reaper) Run(ctx context.Context) error {
	logger := cronLogger{ctx: ctx, log: r.log}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	spec := fmt.Sprintf("@every %s", r.period)
	if _, err := c.AddFunc(spec, func() {
		// errors are already logged by Sweep
		_, _ = r.Sweep(ctx)
	}); err != nil {
		return fmt.Errorf("schedule reaper: %w", err)
	}

	r.log.Info(ctx, "reaper started", "period", r.period.String(), "validity", r.validity.String())
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	r.log.Info(context.Background(), "reaper stopped")
	return nil
}

// cronLogger routes scheduler diagnostics to the service logger.
type cronLogger struct {
	ctx context.Context
	log logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(l.ctx, "cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(l.ctx, "cron: "+msg, append(keysAndValues, "error", err)...)
}
