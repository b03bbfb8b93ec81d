// Package sweeper runs the periodic retention sweep.
//
// A sweep purges every binned folder and file whose retention deadline has passed. Folder cascades
// run first, so a file or subfolder whose own deadline is still in the future is purged together
// with an expired ancestor: a child never outlives its purged parent.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"docbin/internal/lifecycle"
	"docbin/internal/metrics"
	"docbin/internal/model"
	"docbin/internal/repository"
	"docbin/internal/service"
)

// ErrSweepInProgress is returned by RunNow when another sweep has not finished yet.
var ErrSweepInProgress = errors.New("retention sweep already in progress")

// Purger is the subset of the lifecycle service the sweeper drives.
type Purger interface {
	PurgeFolder(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error)
	PurgeFile(ctx context.Context, actor service.Actor, id string) (*service.CascadeResult, error)
}

// ExpiredLister finds binned entities whose deleteAfter is at or before now, and re-reads each
// one right before it is purged.
type ExpiredLister interface {
	ListExpiredFolders(ctx context.Context, now time.Time) ([]model.Folder, error)
	ListExpiredFiles(ctx context.Context, now time.Time) ([]model.File, error)
	FindFolder(ctx context.Context, id string) (*model.Folder, error)
	FindFile(ctx context.Context, id string) (*model.File, error)
}

// Config controls the background sweep.
type Config struct {
	// Enabled starts the periodic worker; RunNow works either way.
	Enabled bool
	// Interval between periodic sweeps (default: 1h).
	Interval time.Duration
	// Timeout bounds a single periodic sweep (default: 30m).
	Timeout time.Duration
	// Clock returns the current time (default: time.Now).
	Clock func() time.Time
}

// Sweeper purges expired entities on a schedule or on demand.
type Sweeper struct {
	purger  Purger
	lister  ExpiredLister
	config  Config
	log     zerolog.Logger
	metrics *metrics.Metrics

	running   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New returns a sweeper that is not yet started.
func New(purger Purger, lister ExpiredLister, config Config, log zerolog.Logger, m *metrics.Metrics) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = time.Hour
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Minute
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}
	return &Sweeper{
		purger:  purger,
		lister:  lister,
		config:  config,
		log:     log.With().Str("component", "sweeper").Logger(),
		metrics: m,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the periodic worker. Calling it more than once has no effect.
func (s *Sweeper) Start() {
	if !s.config.Enabled {
		s.log.Info().Msg("retention sweep disabled")
		return
	}
	s.startOnce.Do(func() {
		s.log.Info().Dur("interval", s.config.Interval).Dur("timeout", s.config.Timeout).Msg("starting retention sweeper")
		s.started.Store(true)
		go s.worker()
	})
}

// Stop signals the worker and waits for an in-flight sweep to finish or ctx to expire.
func (s *Sweeper) Stop(ctx context.Context) error {
	if !s.started.Load() {
		return nil
	}
	s.stopOnce.Do(func() { close(s.stopCh) })

	select {
	case <-s.doneCh:
		s.log.Info().Msg("retention sweeper stopped")
		return nil
	case <-ctx.Done():
		s.log.Warn().Msg("retention sweeper shutdown timeout")
		return ctx.Err()
	}
}

// RunNow performs one sweep synchronously and returns its statistics.
func (s *Sweeper) RunNow(ctx context.Context) (*Stats, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSweepInProgress
	}
	defer s.running.Store(false)
	return s.sweep(ctx)
}

func (s *Sweeper) worker() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !s.running.CompareAndSwap(false, true) {
				s.log.Warn().Msg("previous sweep still running, skipping tick")
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
			stats, err := s.sweep(ctx)
			cancel()
			s.running.Store(false)

			if err != nil {
				s.log.Error().Err(err).Msg("retention sweep failed")
			} else {
				s.log.Info().Str("stats", stats.Summary()).Msg("retention sweep completed")
			}

		case <-s.stopCh:
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: s.config.Clock()}
	defer func() {
		stats.EndTime = s.config.Clock()
		s.metrics.Swept(stats.FoldersPurged, stats.FilesPurged, stats.Duration())
	}()

	now := stats.StartTime
	folders, err := s.lister.ListExpiredFolders(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("list expired folders: %w", err)
	}
	files, err := s.lister.ListExpiredFiles(ctx, now)
	if err != nil {
		return stats, fmt.Errorf("list expired files: %w", err)
	}

	purged := make(map[model.EntityRef]bool)

	for _, f := range folders {
		if purged[f.Ref()] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !s.stillExpired(ctx, stats, f.Ref(), now) {
			continue
		}
		res, err := s.purger.PurgeFolder(ctx, service.SystemActor, f.ID)
		stats.record(res, purged)
		s.logFailure(f.Ref(), res, err)
	}

	for _, f := range files {
		if purged[f.Ref()] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if !s.stillExpired(ctx, stats, f.Ref(), now) {
			continue
		}
		res, err := s.purger.PurgeFile(ctx, service.SystemActor, f.ID)
		stats.record(res, purged)
		s.logFailure(f.Ref(), res, err)
	}

	return stats, nil
}

// stillExpired re-reads an entity listed at the start of the sweep. An entity restored since then,
// and possibly binned again with a new deadline, is left alone. A failed read counts as a failure.
func (s *Sweeper) stillExpired(ctx context.Context, stats *Stats, ref model.EntityRef, now time.Time) bool {
	var (
		l   model.Lifecycle
		err error
	)
	if ref.Kind == model.KindFolder {
		var f *model.Folder
		if f, err = s.lister.FindFolder(ctx, ref.ID); err == nil {
			l = f.Lifecycle
		}
	} else {
		var f *model.File
		if f, err = s.lister.FindFile(ctx, ref.ID); err == nil {
			l = f.Lifecycle
		}
	}

	switch {
	case repository.IsNotFound(err):
		return false
	case err != nil:
		stats.Failed++
		s.log.Warn().Err(err).Str("entity_kind", string(ref.Kind)).Str("entity_id", ref.ID).Msg("re-read failed, will retry next sweep")
		return false
	case !lifecycle.Expired(l, now):
		s.log.Debug().Str("entity_kind", string(ref.Kind)).Str("entity_id", ref.ID).Msg("no longer expired, skipping")
		return false
	}
	return true
}

// logFailure logs per-entity failures. Target-level errors (for example a folder restored since
// it was listed) count as one failure; partial failures were already counted from the result.
func (s *Sweeper) logFailure(ref model.EntityRef, res *service.CascadeResult, err error) {
	if err == nil {
		return
	}
	var partial *service.PartialCascadeFailure
	if errors.As(err, &partial) {
		s.log.Warn().Err(err).Strs("failed_ids", partial.FailedIDs()).Msg("partial purge, will retry next sweep")
		return
	}
	if res == nil {
		s.log.Warn().Err(err).Str("entity_kind", string(ref.Kind)).Str("entity_id", ref.ID).Msg("purge failed, will retry next sweep")
	}
}
