package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

type workerOptions struct {
	poll    time.Duration
	backoff time.Duration
	logger  Logger
}

// WorkerOption configures a Worker at construction time.
type WorkerOption func(*workerOptions)

// PollInterval sets the pause between poll cycles in Listen mode.
func PollInterval(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		o.poll = d
	}
}

// Backoff sets how long Listen pauses after a failed cycle before polling again.
func Backoff(d time.Duration) WorkerOption {
	return func(o *workerOptions) {
		o.backoff = d
	}
}

// WithWorkerLogger replaces the default FmtLogger.
func WithWorkerLogger(l Logger) WorkerOption {
	return func(o *workerOptions) {
		o.logger = l
	}
}

// Worker runs the consume cycle for one queue: reserve, execute, delete. The
// queue handle is guarded by a mutex so only one cycle touches it at a time.
//
// Run drains the queue and stops on the first error. Listen polls forever on
// its own goroutine, treating every error as non-fatal: the failed message is
// not deleted, so the recovery sweep re-surfaces it once its ttr lapses.
type Worker struct {
	mu      sync.Mutex // serializes cycles on the queue
	queue   *Queue
	poll    time.Duration
	backoff time.Duration
	log     Logger

	stateMu sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewWorker creates a worker for the queue. Defaults: 300ms poll interval,
// 1s error backoff, FmtLogger.
func NewWorker(q *Queue, opts ...WorkerOption) *Worker {
	cfg := workerOptions{
		poll:    300 * time.Millisecond,
		backoff: time.Second,
		logger:  NewFmtLogger(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		queue:   q,
		poll:    cfg.poll,
		backoff: cfg.backoff,
		log:     cfg.logger,
	}
}

// Run repeats reserve, execute, delete until any step fails, and returns that
// error. An empty queue ends the drain with ErrNoJob; timeout is the blocking
// window passed to each Reserve.
func (w *Worker) Run(ctx context.Context, timeout time.Duration) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := w.cycle(ctx, timeout); err != nil {
			return err
		}
	}
}

// Listen starts the poll loop on its own goroutine and returns immediately.
// It is idempotent; a second call is ignored with a warning. Use Stop to shut
// the loop down.
func (w *Worker) Listen(timeout time.Duration) {
	w.stateMu.Lock()
	if w.started {
		w.log.Warnf("worker already listening; ignoring Listen()")
		w.stateMu.Unlock()
		return
	}
	w.started = true
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.stateMu.Unlock()

	w.log.Infof("worker listening: channel=%s poll=%s backoff=%s", w.queue.Channel(), w.poll, w.backoff)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.listenLoop(ctx, timeout)
	}()
}

// Stop cancels the Listen loop and waits for the in-flight cycle to finish.
func (w *Worker) Stop() {
	w.stateMu.Lock()
	if !w.started {
		w.log.Warnf("worker not listening; ignoring Stop()")
		w.stateMu.Unlock()
		return
	}
	w.started = false
	cancel := w.cancel
	w.stateMu.Unlock()

	w.log.Infof("worker stopping: channel=%s", w.queue.Channel())
	cancel()
	w.wg.Wait()
}

func (w *Worker) listenLoop(ctx context.Context, timeout time.Duration) {
	for {
		if !sleepCtx(ctx, w.poll) {
			return
		}
		err := w.cycle(ctx, timeout)
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, ErrNoJob) {
			w.log.Debugf("no job available: channel=%s", w.queue.Channel())
		} else {
			w.log.Errorf("worker cycle failed: channel=%s err=%v", w.queue.Channel(), err)
		}
		if !sleepCtx(ctx, w.backoff) {
			return
		}
	}
}

// cycle runs one reserve-execute-delete pass. When execution fails the
// message is intentionally left undeleted; its reservation lapses after the
// ttr and the recovery sweep puts it back on the waiting list.
func (w *Worker) cycle(ctx context.Context, timeout time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	msg, err := w.queue.Reserve(ctx, timeout)
	if err != nil {
		return err
	}
	if err := w.queue.HandleMessage(ctx, msg); err != nil {
		return err
	}
	return w.queue.Delete(ctx, msg.ID)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
