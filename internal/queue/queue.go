package queue

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
)

// Task is one product URL waiting to be scraped, tagged with the job that
// submitted it.
type Task struct {
	ID        string
	JobID     string
	URL       string
	Priority  int
	Retries   int
	CreatedAt time.Time
}

type Queue interface {
	Push(task *Task) error
	Pop(ctx context.Context) (*Task, error)
	TryPop() (*Task, error)
	Size() int
	Close() error
}

// InMemoryQueue is a priority-ordered task queue. Pop blocks until a task
// arrives, the context is cancelled, or the queue is closed and drained.
// Blocked Pops wait on a broadcast channel that Push and Close replace
// under the lock, so a cancelled Pop leaves no goroutine behind.
type InMemoryQueue struct {
	tasks  []*Task
	mu     sync.Mutex
	wake   chan struct{}
	closed bool
}

func NewInMemoryQueue() *InMemoryQueue {
	return &InMemoryQueue{
		tasks: make([]*Task, 0),
		wake:  make(chan struct{}),
	}
}

func (q *InMemoryQueue) Push(task *Task) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.tasks = append(q.tasks, task)
	q.sortByPriority()
	q.wakeWaiters()

	return nil
}

func (q *InMemoryQueue) Pop(ctx context.Context) (*Task, error) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrQueueClosed
		}
		wake := q.wake
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// TryPop removes the highest-priority task without blocking.
func (q *InMemoryQueue) TryPop() (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) > 0 {
		task := q.tasks[0]
		q.tasks = q.tasks[1:]
		return task, nil
	}
	if q.closed {
		return nil, ErrQueueClosed
	}
	return nil, ErrQueueEmpty
}

func (q *InMemoryQueue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.wakeWaiters()

	return nil
}

// wakeWaiters releases every blocked Pop. Callers must hold q.mu.
func (q *InMemoryQueue) wakeWaiters() {
	close(q.wake)
	q.wake = make(chan struct{})
}

func (q *InMemoryQueue) sortByPriority() {
	for i := 0; i < len(q.tasks)-1; i++ {
		for j := 0; j < len(q.tasks)-i-1; j++ {
			if q.tasks[j].Priority < q.tasks[j+1].Priority {
				q.tasks[j], q.tasks[j+1] = q.tasks[j+1], q.tasks[j]
			}
		}
	}
}

// BatchQueue groups tasks for workers that scrape several URLs per browser
// session. PopBatch blocks for the first task only and then drains whatever
// is already queued, up to the batch size.
type BatchQueue struct {
	queue     Queue
	batchSize int
}

func NewBatchQueue(q Queue, batchSize int) *BatchQueue {
	if batchSize < 1 {
		batchSize = 1
	}
	return &BatchQueue{
		queue:     q,
		batchSize: batchSize,
	}
}

func (b *BatchQueue) PushBatch(tasks []*Task) error {
	for _, task := range tasks {
		if err := b.queue.Push(task); err != nil {
			return err
		}
	}
	return nil
}

func (b *BatchQueue) PopBatch(ctx context.Context) ([]*Task, error) {
	first, err := b.queue.Pop(ctx)
	if err != nil {
		return nil, err
	}

	tasks := []*Task{first}
	for len(tasks) < b.batchSize {
		task, err := b.queue.TryPop()
		if err != nil {
			break
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}
