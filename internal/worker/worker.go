// Package worker runs asynchronous Remote Store calls on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var (
	ErrPoolClosed = errors.New("worker pool is shut down")
	ErrQueueFull  = errors.New("worker queue is full")
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Executor accepts tasks for asynchronous execution.
type Executor interface {
	Submit(task Task) error
}

type WorkerPool struct {
	taskQueue chan Task
	wg        sync.WaitGroup
	isClosing atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	log       zerolog.Logger
}

func NewWorkerPool(size, queueSize int, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	wp := &WorkerPool{
		taskQueue: make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		log:       log,
	}
	for range size {
		wp.wg.Add(1)
		go wp.startWorker()
	}
	return wp
}

func (wp *WorkerPool) startWorker() {
	defer wp.wg.Done()
	for task := range wp.taskQueue {
		if err := task(wp.ctx); err != nil {
			wp.log.Error().Err(err).Msg("worker task failed")
		}
	}
}

// Submit queues the task without blocking.
func (wp *WorkerPool) Submit(t Task) error {
	if wp.isClosing.Load() {
		return ErrPoolClosed
	}
	select {
	case wp.taskQueue <- t:
		return nil
	default:
		wp.log.Warn().Int("queued", len(wp.taskQueue)).Msg("task queue full, dropping task")
		return ErrQueueFull
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish. Tasks still running
// when ctx expires see their context cancelled.
func (wp *WorkerPool) Shutdown(ctx context.Context) {
	if !wp.isClosing.CompareAndSwap(false, true) {
		return
	}
	close(wp.taskQueue)

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		wp.cancel()
		<-done
	}
	wp.cancel()
}

// Inline runs every task synchronously on the caller's goroutine.
type Inline struct {
	Ctx context.Context
}

func (i Inline) Submit(t Task) error {
	ctx := i.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return t(ctx)
}
