package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ErrAlreadyRunning is reported when a job arrives for a calendar that a
// worker in this pool is already processing.
var ErrAlreadyRunning = errors.New("calendar already being processed")

// HandlerFunc executes the work for one calendar.
type HandlerFunc func(ctx context.Context, calendarID uint) error

// Pool runs a fixed number of workers draining a Queue. At most one job per
// calendar is active at a time.
type Pool struct {
	queue   Queue
	handle  HandlerFunc
	workers int
	log     zerolog.Logger

	mu     sync.Mutex
	active map[uint]struct{}
	wg     sync.WaitGroup
}

// NewPool returns a pool; call Start to launch workers.
func NewPool(q Queue, h HandlerFunc, workers int, log zerolog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:   q,
		handle:  h,
		workers: workers,
		log:     log.With().Str("component", "generation_pool").Logger(),
		active:  make(map[uint]struct{}),
	}
}

// Start launches the workers. They stop when ctx is cancelled or the queue
// is closed; Wait blocks until they have all returned.
func (p *Pool) Start(ctx context.Context) {
	p.log.Info().Int("concurrency", p.workers).Msg("starting generation workers")
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.runLoop(ctx, id)
		}(i + 1)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) runLoop(ctx context.Context, workerID int) {
	lg := p.log.With().Int("worker_id", workerID).Logger()
	for {
		job, err := p.queue.Dequeue(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrClosed), ctx.Err() != nil:
			lg.Info().Msg("worker stopped")
			return
		default:
			lg.Warn().Err(err).Msg("dequeue failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		if err := p.Process(ctx, job); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			lg.Error().Err(err).Uint("calendar_id", job.CalendarID).Msg("generation job failed")
		}
	}
}

// Process runs one job synchronously on the calling goroutine, applying the
// one-active-per-calendar guard and converting handler panics into errors.
func (p *Pool) Process(ctx context.Context, job Job) (err error) {
	if !p.acquire(job.CalendarID) {
		p.log.Warn().Uint("calendar_id", job.CalendarID).Msg("duplicate job skipped")
		return ErrAlreadyRunning
	}
	defer p.release(job.CalendarID)

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panic: %v", r)
		}
	}()
	return p.handle(ctx, job.CalendarID)
}

func (p *Pool) acquire(id uint) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.active[id]; busy {
		return false
	}
	p.active[id] = struct{}{}
	return true
}

func (p *Pool) release(id uint) {
	p.mu.Lock()
	delete(p.active, id)
	p.mu.Unlock()
}
