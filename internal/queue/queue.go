package queue

import (
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"estateportal/server/internal/models"
)

var (
	ErrQueueFull   = errors.New("queue is full")
	ErrQueueClosed = errors.New("queue is closed")
)

// JobQueue is an in-memory queue of background translation jobs
type JobQueue struct {
	items    chan models.TranslationJob
	done     chan struct{}
	stopped  chan struct{}
	maxSize  int
	closed   bool
	started  bool
	mu       sync.RWMutex
	logger   *logrus.Logger
	handlers []func(models.TranslationJob) error
}

// NewJobQueue creates a queue holding at most bufferSize pending jobs
func NewJobQueue(bufferSize int, logger *logrus.Logger) *JobQueue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return &JobQueue{
		items:    make(chan models.TranslationJob, bufferSize),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
		maxSize:  bufferSize,
		logger:   logger,
		handlers: make([]func(models.TranslationJob) error, 0),
	}
}

// Push enqueues a job without blocking
func (q *JobQueue) Push(job models.TranslationJob) error {
	// Held across the send so Close cannot close the channel underneath it
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- job:
		q.logger.WithFields(logrus.Fields{
			"after_id":   job.AfterID,
			"batch_size": job.BatchSize,
		}).Debug("Pushed job to queue")
		return nil
	default:
		return ErrQueueFull
	}
}

// Subscribe adds a handler function that will be called for each job
func (q *JobQueue) Subscribe(handler func(models.TranslationJob) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers = append(q.handlers, handler)
}

// Start begins processing jobs in a single goroutine, so jobs run one after another
func (q *JobQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.closed {
		return
	}
	q.started = true
	go q.process()
}

func (q *JobQueue) process() {
	defer close(q.stopped)
	for {
		select {
		case <-q.done:
			return
		case job, ok := <-q.items:
			if !ok {
				return
			}
			q.processJob(job)
		}
	}
}

// processJob sends the job to all subscribed handlers
func (q *JobQueue) processJob(job models.TranslationJob) {
	q.mu.RLock()
	handlers := q.handlers
	q.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(job); err != nil {
			q.logger.WithError(err).Error("Handler failed to process job")
		}
	}
}

// Close stops the queue and prevents new jobs from being added. Pending jobs are dropped;
// Close waits for the job in progress, so handlers should watch their own context.
func (q *JobQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	started := q.started
	close(q.done)
	close(q.items)
	q.mu.Unlock()

	if started {
		<-q.stopped
	}
	return nil
}

// Len returns the current number of pending jobs
func (q *JobQueue) Len() int {
	return len(q.items)
}

// IsClosed returns whether the queue has been closed
func (q *JobQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
