package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/Joshua-96/MVG-tracker/internal/buffer"
	"github.com/Joshua-96/MVG-tracker/internal/config"
	"github.com/Joshua-96/MVG-tracker/internal/db"
	"github.com/Joshua-96/MVG-tracker/internal/feed"
	"github.com/Joshua-96/MVG-tracker/internal/models"
	"github.com/Joshua-96/MVG-tracker/internal/registry"
	"github.com/Joshua-96/MVG-tracker/internal/stats"
	"github.com/Joshua-96/MVG-tracker/internal/transfer"
	"github.com/Joshua-96/MVG-tracker/internal/validate"
)

// Fetcher performs one concurrent batch of station fetches.
type Fetcher interface {
	FetchChunk(ctx context.Context, globalIDs []string) ([]*feed.StationResponse, error)
}

// Store is the durable persistence sink driven by the scheduler.
type Store interface {
	Flush(ctx context.Context, departures []models.Departure, transfers []models.TransferCandidate) (db.FlushResult, error)
	Backup(ctx context.Context) error
}

// Scheduler is the single control loop: it triggers fetch cycles,
// validates and merges results into the accumulation buffer, flushes on
// cadence and drives orderly shutdown. It is not reentrant; run exactly
// one instance per network.
type Scheduler struct {
	cfg       config.Config
	reg       *registry.Registry
	fetcher   Fetcher
	store     Store
	validator *validate.Validator
	matcher   *transfer.Matcher
	buf       *buffer.Buffer
	delays    *stats.DelayStats
	logger    *log.Logger

	now        func() time.Time
	lastFlush  time.Time
	lastBackup time.Time
}

// New wires a scheduler from its collaborators.
func New(cfg config.Config, reg *registry.Registry, fetcher Fetcher, store Store, logger *log.Logger) *Scheduler {
	if logger == nil {
		logger = log.Default()
	}
	return &Scheduler{
		cfg:       cfg,
		reg:       reg,
		fetcher:   fetcher,
		store:     store,
		validator: validate.New(reg, cfg.DepartureHorizon, logger),
		matcher:   transfer.NewMatcher(reg),
		buf:       buffer.New(),
		delays:    stats.NewDelayStats(),
		logger:    logger,
		now:       time.Now,
	}
}

// Run drives the poll loop until ctx is canceled, then flushes and backs
// up before returning. Classified failures back off and resume; nothing
// short of cancellation stops the loop.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Printf("Bootstrapping: seeding buffer from %d stations", len(s.reg.Stations()))
	deps, _, err := s.pollOnce(ctx)
	if err != nil {
		s.logger.Printf("bootstrap poll failed: %v", err)
	}
	s.buf.Merge(deps)
	s.lastFlush = s.now()

	for ctx.Err() == nil {
		deps, rawCount, err := s.pollOnce(ctx)
		if err == nil && rawCount == 0 {
			err = ErrPayloadEmpty
		}
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.recover(ctx, err)
			continue
		}

		s.buf.Merge(deps)
		s.delays.Observe(deps)
		s.logger.Printf("polled %d departures, %d buffered", len(deps), s.buf.Len())

		if s.backupDue() {
			if err := s.store.Backup(ctx); err != nil {
				s.logger.Printf("backup failed: %v", err)
			} else {
				s.logger.Println("executing planned db backup")
				s.lastBackup = s.now()
			}
		}

		if gap, ok := s.nextDepartureGap(deps); ok {
			s.logger.Printf("active connection with upcoming departure in %s, next refresh in %s",
				gap.Round(time.Second), s.cfg.RefreshInterval)
			if presleep := presleepFor(gap, s.cfg.SleepThreshold, s.cfg.SleepMargin); presleep > 0 {
				s.logger.Printf("sleepmode, waiting for %s", presleep.Round(time.Second))
				if !s.wait(ctx, presleep) {
					break
				}
			}
		}
		if !s.wait(ctx, s.cfg.RefreshInterval) {
			break
		}

		if s.now().Sub(s.lastFlush) >= s.cfg.SaveInterval {
			if err := s.flush(ctx); err != nil {
				s.logger.Printf("flush failed: %v", err)
			}
		}
	}

	// Termination always flushes whatever is buffered and takes a final
	// backup; the run context is already canceled, so use a fresh one.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := s.flush(shutdownCtx); err != nil {
		s.logger.Printf("final flush failed: %v", err)
	}
	if err := s.store.Backup(shutdownCtx); err != nil {
		s.logger.Printf("final backup failed: %v", err)
	}
	s.logger.Println("Saving data to backup dir and shutting down")
	return nil
}

// pollOnce runs one full fetch cycle across all stations in chunks and
// returns the validated departures plus the raw record count delivered.
func (s *Scheduler) pollOnce(ctx context.Context) ([]models.Departure, int, error) {
	stations := s.reg.Stations()
	var out []models.Departure
	rawCount := 0
	for start := 0; start < len(stations); start += s.cfg.ChunkSize {
		end := min(start+s.cfg.ChunkSize, len(stations))
		chunk := stations[start:end]
		ids := make([]string, len(chunk))
		for i, st := range chunk {
			ids[i] = st.GlobalID
		}
		results, err := s.fetcher.FetchChunk(ctx, ids)
		if err != nil {
			return nil, rawCount, err
		}
		for i, resp := range results {
			if resp == nil {
				continue
			}
			rawCount += len(resp.Departures)
			out = append(out, s.validator.Validate(chunk[i], resp)...)
		}
	}
	return out, rawCount, nil
}

// flush persists the buffer and the transfers computed from it, clearing
// the buffer only after the store confirms the write.
func (s *Scheduler) flush(ctx context.Context) error {
	snapshot := s.buf.Snapshot()
	transfers := s.matcher.Match(snapshot)
	result, err := s.store.Flush(ctx, snapshot, transfers)
	if err != nil {
		return err
	}
	s.buf.Clear()
	s.lastFlush = s.now()
	s.logger.Printf("saving snapshot of departures to database: %d departures, %d transfers, saving again in %s",
		result.Departures, result.Transfers, s.cfg.SaveInterval)
	if summary := s.delays.Summary(); summary != "" {
		s.logger.Printf("running delay by line: %s", summary)
	}
	return nil
}

// recover applies the recovery policy for a classified failure: an
// optional best-effort flush, then the class backoff. A flush failure
// during recovery is logged, never retried.
func (s *Scheduler) recover(ctx context.Context, err error) {
	f := Classify(err)
	s.logger.Printf("%s: %v, resuming polling in %s", f.Class, err, f.Backoff)
	if f.FlushBuffer {
		if ferr := s.flush(ctx); ferr != nil {
			s.logger.Printf("recovery flush failed: %v", ferr)
		}
	}
	s.wait(ctx, f.Backoff)
}

func (s *Scheduler) backupDue() bool {
	now := s.now()
	if now.Hour() != s.cfg.BackupHour {
		return false
	}
	y1, m1, d1 := s.lastBackup.Date()
	y2, m2, d2 := now.Date()
	return s.lastBackup.IsZero() || y1 != y2 || m1 != m2 || d1 != d2
}

// nextDepartureGap returns the time until the soonest planned departure
// of the current cycle.
func (s *Scheduler) nextDepartureGap(deps []models.Departure) (time.Duration, bool) {
	if len(deps) == 0 {
		return 0, false
	}
	next := deps[0].Planned
	for _, dep := range deps[1:] {
		if dep.Planned.Before(next) {
			next = dep.Planned
		}
	}
	return next.Sub(s.now()), true
}

// presleepFor computes the extra sleep taken when the next departure is
// far away: the full gap minus the safety margin, but only above the
// threshold.
func presleepFor(gap, threshold, margin time.Duration) time.Duration {
	if gap <= threshold {
		return 0
	}
	return gap - margin
}

// wait sleeps for d unless the context ends first. Reports whether the
// full duration elapsed.
func (s *Scheduler) wait(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
