// Package pipeline runs keyed derivations where a newer input supersedes the older one.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Derive computes a result for one input.
type Derive[T any] func(ctx context.Context) (T, error)

// Deliver receives the result of the latest derivation for a key.
type Deliver[T any] func(result T, err error)

type run struct {
	seq    uint64
	cancel context.CancelFunc
}

// Runner keeps at most one live derivation per key. Submitting for a key cancels the
// derivation in flight for it, and a cancelled derivation never delivers.
type Runner[T any] struct {
	mu       sync.Mutex
	debounce time.Duration
	runs     map[string]run
	seq      uint64
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewRunner returns a runner that waits debounce before starting a derivation, so bursts of
// inputs for one key cause a single derivation. Zero disables the wait.
func NewRunner[T any](debounce time.Duration, log zerolog.Logger) *Runner[T] {
	ctx, cancel := context.WithCancel(context.Background())
	return &Runner[T]{
		debounce: debounce,
		runs:     map[string]run{},
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
	}
}

// Submit schedules derive for key, superseding whatever is pending or running for it.
func (r *Runner[T]) Submit(key string, derive Derive[T], deliver Deliver[T]) {
	r.mu.Lock()
	if r.ctx.Err() != nil {
		r.mu.Unlock()
		return
	}
	if previous, ok := r.runs[key]; ok {
		previous.cancel()
	}
	r.seq++
	seq := r.seq
	ctx, cancel := context.WithCancel(r.ctx)
	r.runs[key] = run{seq: seq, cancel: cancel}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.done(key, seq, cancel)

		if r.debounce > 0 {
			timer := time.NewTimer(r.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		result, err := derive(ctx)
		if !r.current(key, seq) || ctx.Err() != nil {
			r.log.Debug().Str("key", key).Msg("dropping superseded derivation")
			return
		}
		deliver(result, err)
	}()
}

func (r *Runner[T]) current(key string, seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[key].seq == seq
}

func (r *Runner[T]) done(key string, seq uint64, cancel context.CancelFunc) {
	cancel()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.runs[key].seq == seq {
		delete(r.runs, key)
	}
}

// Pending reports how many keys have a derivation waiting or running.
func (r *Runner[T]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// Close cancels every derivation and waits for them to return.
func (r *Runner[T]) Close() {
	r.mu.Lock()
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
}
