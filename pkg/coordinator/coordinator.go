// Package coordinator runs named crawl tasks on a bounded worker pool,
// tracking an independently queryable lifecycle per task. Two
// executions of the same task id never overlap.
package coordinator

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"plugindiff/models"
	"plugindiff/pkg/scraper"
)

// DefaultPageLimit bounds a crawl when no limit is given.
const DefaultPageLimit = 5

var (
	ErrUnknownTask  = errors.New("unknown task")
	ErrTaskActive   = errors.New("task is active")
	ErrShuttingDown = errors.New("coordinator is shut down")
	ErrQueueFull    = errors.New("job queue is full")
)

// Factory builds a fresh scraper per execution so every run owns its
// own HTTP session.
type Factory func() scraper.Scraper

// task is only touched while holding the coordinator lock, except for
// the factory call itself which runs on a worker.
type task struct {
	factory   Factory
	pageLimit int

	state       models.TaskState
	result      []models.Record
	itemCount   int
	completedAt time.Time
	errorInfo   string
	done        chan struct{}
}

func (t *task) snapshot() models.TaskStatus {
	s := models.TaskStatus{State: t.state, ItemCount: t.itemCount, Error: t.errorInfo}
	if !t.completedAt.IsZero() {
		s.CompletedAt = t.completedAt.Format(time.RFC3339)
	}
	return s
}

type Coordinator struct {
	mu     sync.RWMutex
	tasks  map[string]*task
	jobs   chan string
	wg     sync.WaitGroup
	closed bool
	logger *slog.Logger
}

// New starts a coordinator with the given worker count. The job queue
// is buffered so Start does not block callers.
func New(workers int, logger *slog.Logger) *Coordinator {
	if workers < 1 {
		workers = 4
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Coordinator{
		tasks:  make(map[string]*task),
		jobs:   make(chan string, 256),
		logger: logger,
	}
	for i := 1; i <= workers; i++ {
		c.wg.Add(1)
		go c.worker(i)
	}
	return c
}

func (c *Coordinator) worker(id int) {
	defer c.wg.Done()
	for taskID := range c.jobs {
		c.execute(taskID)
	}
	c.logger.Debug("worker stopped", "worker", id)
}

// Register upserts a task descriptor in PENDING state; a task that is
// currently running cannot be replaced.
func (c *Coordinator) Register(id string, factory Factory, pageLimit int) error {
	if pageLimit < 1 {
		pageLimit = DefaultPageLimit
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.tasks[id]; ok && existing.state == models.TaskActive {
		return fmt.Errorf("cannot replace task %s: %w", id, ErrTaskActive)
	}
	c.tasks[id] = &task{
		factory:   factory,
		pageLimit: pageLimit,
		state:     models.TaskPending,
		done:      closedChan(),
	}
	return nil
}

// Start submits the task to the pool and reports whether this call
// started it. An already running task is a no-op, not an error.
func (c *Coordinator) Start(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tasks[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	if t.state == models.TaskActive {
		return false, nil
	}
	if c.closed {
		return false, ErrShuttingDown
	}

	t.state = models.TaskActive
	t.errorInfo = ""
	t.done = make(chan struct{})
	select {
	case c.jobs <- id:
	default:
		t.state = models.TaskPending
		close(t.done)
		return false, ErrQueueFull
	}
	return true, nil
}

// execute runs one crawl on the calling worker and records the outcome.
func (c *Coordinator) execute(id string) {
	c.mu.RLock()
	t, ok := c.tasks[id]
	if !ok {
		c.mu.RUnlock()
		return
	}
	factory, pages := t.factory, t.pageLimit
	c.mu.RUnlock()

	cat, err := factory().FetchCatalog(pages)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		// keep the last successful result and its count
		t.state = models.TaskFailed
		t.errorInfo = err.Error()
		c.logger.Warn("task failed", "task", id, "error", err)
	} else {
		t.state = models.TaskSucceeded
		t.result = cat.Records()
		t.itemCount = cat.Len()
		t.completedAt = time.Now()
		c.logger.Info("task finished", "task", id, "items", t.itemCount)
	}
	close(t.done)
}

// Status returns a consistent snapshot of one task.
func (c *Coordinator) Status(id string) (models.TaskStatus, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	if !ok {
		return models.TaskStatus{}, fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	return t.snapshot(), nil
}

// StatusAll returns a snapshot of every registered task.
func (c *Coordinator) StatusAll() map[string]models.TaskStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.TaskStatus, len(c.tasks))
	for id, t := range c.tasks {
		out[id] = t.snapshot()
	}
	return out
}

// Result returns the records of the task's last successful run, empty
// if it has none yet.
func (c *Coordinator) Result(id string) []models.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	if !ok {
		return nil
	}
	out := make([]models.Record, len(t.result))
	copy(out, t.result)
	return out
}

// Await blocks until the task's current execution reaches a terminal
// state; a task that is not running returns immediately.
func (c *Coordinator) Await(id string) error {
	c.mu.RLock()
	t, ok := c.tasks[id]
	if !ok {
		c.mu.RUnlock()
		return fmt.Errorf("%w: %s", ErrUnknownTask, id)
	}
	done := t.done
	c.mu.RUnlock()
	<-done
	return nil
}

// Shutdown stops accepting submissions and waits for queued and
// in-flight crawls to finish. In-flight crawls are never cancelled.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.jobs)
	c.mu.Unlock()
	c.wg.Wait()
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
