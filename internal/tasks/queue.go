// Package tasks runs fire-and-forget background work (notification emails)
// on a fixed worker pool with bounded retry. Tasks that cannot be delivered
// are logged, counted and written to a dead letter journal.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Kind names a task type
type Kind string

const (
	KindMaintenanceNotification Kind = "maintenance_notification"
	KindReportNotification      Kind = "report_notification"
)

// Outcomes recorded in itsm_tasks_total
const (
	OutcomeSucceeded  = "succeeded"
	OutcomeRetried    = "retried"
	OutcomeDeadLetter = "dead_letter"
)

var (
	// ErrQueueFull is recorded when the buffer has no room
	ErrQueueFull = errors.New("task queue full")
	// ErrQueueStopped is recorded for tasks enqueued after shutdown began
	ErrQueueStopped = errors.New("task queue stopped")
	// ErrNoHandler is recorded for kinds without a registered handler
	ErrNoHandler = errors.New("no handler registered")
)

// Handler executes one task. A non-nil error triggers a retry.
type Handler func(ctx context.Context, payload map[string]string) error

// Scheduler accepts background work without blocking the caller
type Scheduler interface {
	Enqueue(kind Kind, payload map[string]string)
}

// Options configures a Queue
type Options struct {
	Workers     int
	QueueSize   int
	MaxAttempts int
	Backoff     time.Duration
}

type task struct {
	id         string
	kind       Kind
	payload    map[string]string
	enqueuedAt time.Time
}

// Queue is an in-process task queue
type Queue struct {
	opts     Options
	logger   *zap.Logger
	journal  Journal
	total    *prometheus.CounterVec
	handlers map[Kind]Handler

	jobs    chan *task
	mu      sync.RWMutex
	stopped bool
	started bool
	wg      sync.WaitGroup

	runCtx    context.Context
	cancelRun context.CancelFunc
}

var _ Scheduler = (*Queue)(nil)

// NewQueue creates a queue. journal may be nil; reg may be nil to skip
// metric registration.
func NewQueue(opts Options, journal Journal, reg prometheus.Registerer, logger *zap.Logger) *Queue {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 100
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	runCtx, cancel := context.WithCancel(context.Background())
	return &Queue{
		opts:    opts,
		logger:  logger,
		journal: journal,
		total: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "itsm_tasks_total",
			Help: "Background tasks by kind and outcome.",
		}, []string{"kind", "outcome"}),
		handlers:  make(map[Kind]Handler),
		jobs:      make(chan *task, opts.QueueSize),
		runCtx:    runCtx,
		cancelRun: cancel,
	}
}

// Register sets the handler for kind. Call before Start.
func (q *Queue) Register(kind Kind, h Handler) {
	q.handlers[kind] = h
}

// Start launches the workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	for i := 0; i < q.opts.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
}

// Enqueue schedules a task. It never blocks: a full or stopped queue turns
// the task into a dead letter immediately.
func (q *Queue) Enqueue(kind Kind, payload map[string]string) {
	t := &task{
		id:         uuid.NewString(),
		kind:       kind,
		payload:    payload,
		enqueuedAt: time.Now().UTC(),
	}

	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		q.deadLetter(t, 0, ErrQueueStopped)
		return
	}
	select {
	case q.jobs <- t:
	default:
		q.deadLetter(t, 0, ErrQueueFull)
	}
}

// Shutdown stops accepting tasks and waits for queued work to finish. When
// ctx expires first, running handlers are cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if !q.stopped {
		q.stopped = true
		close(q.jobs)
	}
	started := q.started
	q.mu.Unlock()

	if !started {
		// nothing will drain the buffer
		for t := range q.jobs {
			q.deadLetter(t, 0, ErrQueueStopped)
		}
		q.cancelRun()
		return nil
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.cancelRun()
		return nil
	case <-ctx.Done():
		q.cancelRun()
		<-done
		return ctx.Err()
	}
}

// DeadLetters lists the journaled dead letters
func (q *Queue) DeadLetters() ([]DeadLetter, error) {
	if q.journal == nil {
		return []DeadLetter{}, nil
	}
	return q.journal.List()
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for t := range q.jobs {
		q.process(t)
	}
}

func (q *Queue) process(t *task) {
	handler, ok := q.handlers[t.kind]
	if !ok {
		q.deadLetter(t, 0, ErrNoHandler)
		return
	}

	var err error
	for attempt := 1; attempt <= q.opts.MaxAttempts; attempt++ {
		if err = q.runCtx.Err(); err != nil {
			q.deadLetter(t, attempt-1, err)
			return
		}

		err = q.run(handler, t)
		if err == nil {
			q.total.WithLabelValues(string(t.kind), OutcomeSucceeded).Inc()
			q.logger.Debug("Task completed",
				zap.String("task_id", t.id),
				zap.String("kind", string(t.kind)),
				zap.Int("attempt", attempt),
			)
			return
		}

		if attempt == q.opts.MaxAttempts {
			q.deadLetter(t, attempt, err)
			return
		}

		q.total.WithLabelValues(string(t.kind), OutcomeRetried).Inc()
		q.logger.Warn("Task failed, retrying",
			zap.String("task_id", t.id),
			zap.String("kind", string(t.kind)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-time.After(q.backoff(attempt)):
		case <-q.runCtx.Done():
			q.deadLetter(t, attempt, fmt.Errorf("%w (cancelled during backoff)", err))
			return
		}
	}
}

func (q *Queue) run(handler Handler, t *task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return handler(q.runCtx, t.payload)
}

// backoff doubles the base delay after every failed attempt
func (q *Queue) backoff(attempt int) time.Duration {
	return q.opts.Backoff << (attempt - 1)
}

func (q *Queue) deadLetter(t *task, attempts int, cause error) {
	q.total.WithLabelValues(string(t.kind), OutcomeDeadLetter).Inc()
	q.logger.Error("Task dead-lettered",
		zap.String("task_id", t.id),
		zap.String("kind", string(t.kind)),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	)

	if q.journal == nil {
		return
	}
	dl := DeadLetter{
		ID:         t.id,
		Kind:       t.kind,
		Payload:    t.payload,
		Attempts:   attempts,
		Error:      cause.Error(),
		EnqueuedAt: t.enqueuedAt,
		FailedAt:   time.Now().UTC(),
	}
	if err := q.journal.Record(dl); err != nil {
		q.logger.Error("Failed to journal dead letter", zap.String("task_id", t.id), zap.Error(err))
	}
}
