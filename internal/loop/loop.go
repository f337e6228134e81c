// Package loop drives one engine from a single goroutine. Every external
// caller reaches the engine through Do, so the engine itself needs no locks.
package loop

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/danielpatrickdp/adaptive-difficulty/go-controller/internal/engine"
)

// ErrStopped is returned by Do once the runner has exited.
var ErrStopped = errors.New("loop stopped")

// #region config

// Config holds the loop cadence.
type Config struct {
	TickRate     time.Duration // fixed step per tick (default 100ms)
	SaveInterval time.Duration // engine time between autosaves, 0 disables
}

// DefaultConfig returns the stock cadence.
func DefaultConfig() Config {
	return Config{
		TickRate:     100 * time.Millisecond,
		SaveInterval: 5 * time.Minute,
	}
}

// #endregion

// #region runner

// SaveFunc persists the engine. reason is "autosave" or "shutdown".
type SaveFunc func(eng *engine.Engine, reason string) error

// Runner owns an engine and ticks it at a fixed rate.
type Runner struct {
	eng     *engine.Engine
	config  Config
	logger  *log.Logger
	calls   chan call
	done    chan struct{}
	started atomic.Bool
	ticks   atomic.Uint64

	onTick func(engine.TickReport)
	onSave SaveFunc
}

type call struct {
	fn   func(*engine.Engine)
	done chan struct{}
}

// New creates a runner for eng. It does nothing until Run is called.
func New(eng *engine.Engine, config Config, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if config.TickRate <= 0 {
		config.TickRate = DefaultConfig().TickRate
	}
	return &Runner{
		eng:    eng,
		config: config,
		logger: logger,
		calls:  make(chan call),
		done:   make(chan struct{}),
	}
}

// OnTick registers a hook run on the loop goroutine after every tick. It
// must be set before Run.
func (r *Runner) OnTick(fn func(engine.TickReport)) { r.onTick = fn }

// OnSave registers the persistence hook. It must be set before Run.
func (r *Runner) OnSave(fn SaveFunc) { r.onSave = fn }

// Ticks returns the number of ticks run so far.
func (r *Runner) Ticks() uint64 { return r.ticks.Load() }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// #endregion

// #region run

// Run ticks the engine until ctx ends, then saves once more and returns.
// Calls submitted through Do are executed between ticks.
func (r *Runner) Run(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return errors.New("loop: already running")
	}
	defer close(r.done)

	ticker := time.NewTicker(r.config.TickRate)
	defer ticker.Stop()

	var sinceSave time.Duration
	for {
		select {
		case <-ctx.Done():
			r.save("shutdown")
			return nil
		case c := <-r.calls:
			c.fn(r.eng)
			close(c.done)
		case <-ticker.C:
			rep := r.eng.Tick(r.config.TickRate)
			r.ticks.Add(1)
			if r.onTick != nil {
				r.onTick(rep)
			}
			if r.config.SaveInterval > 0 {
				sinceSave += r.config.TickRate
				if sinceSave >= r.config.SaveInterval {
					sinceSave = 0
					r.save("autosave")
				}
			}
		}
	}
}

func (r *Runner) save(reason string) {
	if r.onSave == nil {
		return
	}
	if err := r.onSave(r.eng, reason); err != nil {
		r.logger.Printf("loop: %s failed: %v", reason, err)
	}
}

// #endregion

// #region do

// Do runs fn on the loop goroutine and waits for it to finish. It returns
// ctx.Err() when ctx ends first and ErrStopped when the runner has exited.
func (r *Runner) Do(ctx context.Context, fn func(*engine.Engine)) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case r.calls <- c:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-r.done:
		select {
		case <-c.done:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// #endregion
