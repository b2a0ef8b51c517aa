// Package historian drains match action records from the queue into Postgres and marks
// matches abandoned after a period of inactivity.
package historian

import (
	"context"
	"sync"
	"time"

	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Queue yields queued action records.
type Queue interface {
	Pop(ctx context.Context, timeout time.Duration) (cache.ActionRecord, bool, error)
}

// Sink persists action records.
type Sink interface {
	InsertActions(ctx context.Context, recs []cache.ActionRecord) error
	MarkAbandoned(ctx context.Context, gameID string) (bool, error)
}

type Options struct {
	BatchSize  int
	FlushDelay time.Duration
	// Inactivity is how long a match may go without actions before it is marked abandoned.
	Inactivity time.Duration
	// SweepEvery is the inactivity check interval.
	SweepEvery time.Duration
	PopTimeout time.Duration
}

// Service batches records from a Queue into a Sink.
type Service struct {
	queue  Queue
	sink   Sink
	opts   Options
	logger logrus.FieldLogger
	now    func() time.Time

	batchMu sync.Mutex
	batch   []cache.ActionRecord

	activityMu   sync.Mutex
	lastActivity map[string]time.Time
}

func New(queue Queue, sink Sink, opts Options, logger logrus.FieldLogger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	if opts.Inactivity <= 0 {
		opts.Inactivity = 10 * time.Minute
	}
	if opts.SweepEvery <= 0 {
		opts.SweepEvery = time.Minute
	}
	if opts.PopTimeout <= 0 {
		opts.PopTimeout = 3 * time.Second
	}
	return &Service{
		queue:        queue,
		sink:         sink,
		opts:         opts,
		logger:       logger,
		now:          time.Now,
		batch:        make([]cache.ActionRecord, 0, opts.BatchSize),
		lastActivity: make(map[string]time.Time),
	}
}

// Run blocks until ctx is done, then flushes what is left.
func (s *Service) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(gctx) })
	g.Go(func() error { return s.flushLoop(gctx) })
	g.Go(func() error { return s.inactivityLoop(gctx) })

	s.logger.Info("historian service started")
	err := g.Wait()

	// the run context is gone; give the final flush its own deadline
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.Flush(flushCtx)
	s.logger.Info("historian shutting down")

	if ctx.Err() != nil {
		return nil
	}
	return err
}

func (s *Service) readLoop(ctx context.Context) error {
	for ctx.Err() == nil {
		rec, ok, err := s.queue.Pop(ctx, s.opts.PopTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.WithError(err).Error("Failed to pop action record")
			continue
		}
		if !ok {
			continue
		}
		s.touch(rec.GameID)
		if s.add(rec) {
			s.Flush(ctx)
		}
	}
	return nil
}

func (s *Service) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.FlushDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

func (s *Service) inactivityLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.opts.SweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// add appends rec to the batch and reports whether the batch is full.
func (s *Service) add(rec cache.ActionRecord) bool {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	s.batch = append(s.batch, rec)
	return len(s.batch) >= s.opts.BatchSize
}

// Flush writes the pending batch in one transaction. A failed batch is put back.
func (s *Service) Flush(ctx context.Context) {
	s.batchMu.Lock()
	defer s.batchMu.Unlock()
	if len(s.batch) == 0 {
		return
	}
	pending := make([]cache.ActionRecord, len(s.batch))
	copy(pending, s.batch)

	if err := s.sink.InsertActions(ctx, pending); err != nil {
		s.logger.WithError(err).WithField("count", len(pending)).Error("Failed to flush actions")
		return
	}
	s.batch = s.batch[:0]
	s.logger.Debugf("Flushed %d actions to DB", len(pending))
}

func (s *Service) touch(gameID string) {
	s.activityMu.Lock()
	s.lastActivity[gameID] = s.now()
	s.activityMu.Unlock()
}

// Sweep marks every match idle for longer than Inactivity as abandoned.
func (s *Service) Sweep(ctx context.Context) {
	now := s.now()
	var stale []string
	s.activityMu.Lock()
	for id, last := range s.lastActivity {
		if now.Sub(last) > s.opts.Inactivity {
			stale = append(stale, id)
			delete(s.lastActivity, id)
		}
	}
	s.activityMu.Unlock()

	for _, id := range stale {
		changed, err := s.sink.MarkAbandoned(ctx, id)
		log := s.logger.WithField("game_id", id)
		if err != nil {
			log.WithError(err).Error("Failed to mark game abandoned")
			continue
		}
		if changed {
			log.Info("Marked game abandoned due to inactivity")
		}
	}
}
