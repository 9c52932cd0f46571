package simulation

import (
	"context"
	"errors"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-matchengine/internal/domain/match"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
	"github.com/sourcegraph/conc"
)

var (
	ErrNotRunning     = errors.New("match has no running driver")
	ErrAlreadyRunning = errors.New("match driver is already running")
)

const defaultTickInterval = time.Second

// CompletionFunc receives the outbound record of a finished match.
type CompletionFunc func(ctx context.Context, record match.CompletedMatch)

// Runner owns one driver goroutine per match. Each driver ticks its engine on
// a fixed interval and checks for a stop signal before every tick.
type Runner struct {
	interval   time.Duration
	onComplete CompletionFunc
	logger     *logging.Logger

	mu    sync.Mutex
	stops map[string]context.CancelFunc
	wg    conc.WaitGroup
}

func NewRunner(interval time.Duration, onComplete CompletionFunc, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if onComplete == nil {
		onComplete = func(context.Context, match.CompletedMatch) {}
	}
	return &Runner{
		interval:   interval,
		onComplete: onComplete,
		logger:     logger,
		stops:      make(map[string]context.CancelFunc),
	}
}

// Run starts e and launches its driver. The driver stops when ctx is done,
// Stop is called, or the match completes.
func (r *Runner) Run(ctx context.Context, e *Engine) error {
	return r.launch(ctx, e, e.Start)
}

// Resume relaunches the driver of a match that was stopped while in progress.
func (r *Runner) Resume(ctx context.Context, e *Engine) error {
	return r.launch(ctx, e, func() error {
		if status := e.State().Status; status != match.StatusInProgress {
			return crerr.Wrapf(match.ErrInvalidTransition, "resume match %s: status is %s", e.ID(), status)
		}
		return nil
	})
}

func (r *Runner) launch(ctx context.Context, e *Engine, before func() error) error {
	r.mu.Lock()
	if _, running := r.stops[e.ID()]; running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	if err := before(); err != nil {
		r.mu.Unlock()
		return err
	}
	driveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r.stops[e.ID()] = cancel
	r.mu.Unlock()

	r.wg.Go(func() {
		defer r.release(e.ID())
		r.drive(driveCtx, e)
	})
	return nil
}

// Stop signals the driver of matchID. The signal is honoured before the next
// tick; a tick already in flight finishes.
func (r *Runner) Stop(matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancel, ok := r.stops[matchID]
	if !ok {
		return ErrNotRunning
	}
	cancel()
	return nil
}

// StopAll signals every driver.
func (r *Runner) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, cancel := range r.stops {
		cancel()
	}
}

func (r *Runner) Running(matchID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.stops[matchID]
	return ok
}

// Wait blocks until every driver returned. A panic inside a driver is
// re-raised here.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) release(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.stops[matchID]; ok {
		cancel()
		delete(r.stops, matchID)
	}
}

func (r *Runner) drive(ctx context.Context, e *Engine) {
	logger := r.logger.With("match_id", e.ID())
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("match driver stopped", "minute", e.State().Minute)
			return
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			logger.Info("match driver stopped", "minute", e.State().Minute)
			return
		}

		result, err := e.Tick()
		if err != nil {
			logger.Error("match tick failed", "error", err)
			return
		}
		if result.Completed {
			record, _ := e.Completed()
			r.onComplete(ctx, record)
			return
		}
	}
}
